package middleware

import (
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/logging"
)

// RequestLogging assigns an X-Request-ID (reusing the client's when
// present) and logs one line per completed request.  Level follows the
// status: 5xx error, 4xx warn, otherwise info.
func RequestLogging(log *logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            requestID := req.Header.Get(echo.HeaderXRequestID)
            if requestID == "" {
                requestID = uuid.New().String()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, requestID)
            c.Set(ctxRequestID, requestID)

            err := next(c)
            if err != nil {
                // let echo write the error so the logged status is final
                c.Error(err)
            }

            status := c.Response().Status
            ev := log.Info()
            if status >= 500 {
                ev = log.Error()
            } else if status >= 400 {
                ev = log.Warn()
            }
            if herr, ok := c.Get(ctxError).(error); ok {
                ev = ev.Err(herr)
            }
            ev.
                Str("request_id", requestID).
                Str("method", req.Method).
                Str("path", req.URL.Path).
                Str("route", c.Path()).
                Str("remote_addr", c.RealIP()).
                Str("user", currentUserID(c)).
                Int("status_code", status).
                Dur("duration_ms", time.Since(start)).
                Msg("HTTP request completed")
            return nil
        }
    }
}

// Recovery turns a handler panic into a 500 and logs it with the request id.
func Recovery(log *logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    log.Error().
                        Str("request_id", RequestID(c)).
                        Str("method", c.Request().Method).
                        Str("path", c.Request().URL.Path).
                        Interface("panic", r).
                        Msg("Recovered from panic")
                    err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
                }
            }()
            return next(c)
        }
    }
}
