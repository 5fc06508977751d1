package middleware

import (
    "context"
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/service"
)

// TokenResolver maps a session token to its user.
type TokenResolver interface {
    ResolveToken(ctx context.Context, token string) (model.User, error)
}

// SessionAuth rejects requests without a valid session token and stores
// the resolved user, its id and the raw token in the echo context.
func SessionAuth(resolver TokenResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := TokenFromRequest(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing auth token"})
            }
            u, err := resolver.ResolveToken(c.Request().Context(), raw)
            if err != nil {
                if errors.Is(err, service.ErrUnauthorized) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
                }
                RecordError(c, fmt.Errorf("resolve token: %w", err))
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }
            c.Set(ctxUser, u)
            c.Set(ctxUserID, u.ID)
            c.Set(ctxToken, raw)
            return next(c)
        }
    }
}
