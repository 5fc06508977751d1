package middleware

// identity.go holds the context keys and token extraction shared by the
// auth, rate limit and request log middleware.

import (
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
)

// AuthCookie is the cookie carrying the session token.
const AuthCookie = "auth"

const (
    ctxUser      = "user"
    ctxUserID    = "user_id"
    ctxToken     = "token"
    ctxRequestID = "request_id"
    ctxError     = "handler_error"
)

// TokenFromRequest returns the session token from the auth cookie or,
// failing that, from an "Authorization: Bearer" header.
func TokenFromRequest(c echo.Context) string {
    if ck, err := c.Cookie(AuthCookie); err == nil && ck.Value != "" {
        return ck.Value
    }
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
        return strings.TrimSpace(auth[7:])
    }
    return ""
}

// CurrentUser returns the user stored by SessionAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(ctxUser).(model.User)
    return u, ok
}

// CurrentToken returns the raw token accepted by SessionAuth.
func CurrentToken(c echo.Context) string {
    s, _ := c.Get(ctxToken).(string)
    return s
}

// RequestID returns the id assigned by RequestLogging.
func RequestID(c echo.Context) string {
    s, _ := c.Get(ctxRequestID).(string)
    return s
}

// RecordError attaches an internal error to the request so the request
// log line carries it while the client only sees a generic message.
func RecordError(c echo.Context, err error) {
    c.Set(ctxError, err)
}

// currentUserID returns the caller's id as a string, or "anon".
func currentUserID(c echo.Context) string {
    if id, ok := c.Get(ctxUserID).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
