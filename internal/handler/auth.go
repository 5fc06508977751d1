package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/middleware"
    "github.com/iliyamo/concert-booking/internal/utils"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
    Login(ctx context.Context, username, password string) (utils.SessionToken, error)
    Logout(ctx context.Context, token string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth         Authenticator
    SecureCookie bool
}

func NewAuthHandler(auth Authenticator, secureCookie bool) *AuthHandler {
    return &AuthHandler{Auth: auth, SecureCookie: secureCookie}
}

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type tokenResp struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// Login verifies credentials, sets the auth cookie and also returns the
// token in the body for clients that prefer a bearer header.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return errorJSON(c, http.StatusBadRequest, "username/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tok, err := h.Auth.Login(ctx, req.Username, req.Password)
    if err != nil {
        return serviceError(c, err)
    }
    c.SetCookie(h.cookie(tok.Token, tok.Exp))
    return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp})
}

// Logout revokes the session that authenticated this request and clears
// the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
    token := middleware.CurrentToken(c)
    if token == "" {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Auth.Logout(ctx, token); err != nil {
        return serviceError(c, err)
    }
    expired := h.cookie("", time.Unix(0, 0))
    expired.MaxAge = -1
    c.SetCookie(expired)
    return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) cookie(value string, exp time.Time) *http.Cookie {
    return &http.Cookie{
        Name:     middleware.AuthCookie,
        Value:    value,
        Path:     "/",
        Expires:  exp,
        HttpOnly: true,
        Secure:   h.SecureCookie,
        SameSite: http.SameSiteLaxMode,
    }
}
