package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/handler"
)

// RegisterBooking registers the endpoints that act on behalf of a logged
// in user.  Every route requires a valid session; the group carries no
// middleware so unknown paths still answer 404.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, s *handler.SubscriptionHandler, g Guards) {
    api := e.Group(BasePath)
    authed := use(g.Auth)
    // Auth runs before the limiter so per-user keys see the caller.
    api.POST("/bookings", b.Create, use(g.Auth, g.RateLimit)...)
    api.GET("/bookings", b.List, authed...)
    api.GET("/bookings/:id", b.Get, authed...)
    api.POST("/subscribe/concertInfo", s.Subscribe, authed...)
}
