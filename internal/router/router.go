package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/handler"
)

// BasePath prefixes every API route.
const BasePath = "/concert-service"

// Guards bundles the middleware applied to route groups.  Cache wraps the
// public catalog, RateLimit sits in front of login and booking creation
// and Auth resolves the session on protected routes.  A nil entry is
// skipped.
type Guards struct {
    Cache     echo.MiddlewareFunc
    RateLimit echo.MiddlewareFunc
    Auth      echo.MiddlewareFunc
}

func use(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
    out := make([]echo.MiddlewareFunc, 0, len(mws))
    for _, m := range mws {
        if m != nil {
            out = append(out, m)
        }
    }
    return out
}

// RegisterRoutes registers the health check outside the API prefix so
// load balancers can probe it without knowing the base path.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
    e.GET("/healthz", health)
}

// RegisterPublic registers the unauthenticated catalog and seat routes.
// Catalog responses go through the cache; seat listings change with every
// booking and are served uncached.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, seats *handler.SeatHandler, g Guards) {
    api := e.Group(BasePath)

    cached := use(g.Cache)
    api.GET("/concerts", cat.ListConcerts, cached...)
    api.GET("/concerts/summaries", cat.ListConcertSummaries, cached...)
    api.GET("/concerts/:id", cat.GetConcert, cached...)
    api.GET("/performers", cat.ListPerformers, cached...)
    api.GET("/performers/:id", cat.GetPerformer, cached...)

    api.GET("/seats/:date", seats.ListSeats)
}

// RegisterAuth registers login and logout.  Login is rate limited;
// logout needs a live session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
    api := e.Group(BasePath)
    api.POST("/login", a.Login, use(g.RateLimit)...)
    api.POST("/logout", a.Logout, use(g.Auth)...)
}
