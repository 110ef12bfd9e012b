package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/room-booking-basket/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/room-booking-basket/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all admin authentication routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Operations that do not require an existing session (register, login,
    // refresh).  Each handler generates or exchanges tokens itself.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token and returns a new pair.
    g.POST("/refresh", a.Refresh)
    // Logout does not require JWT authentication: the handler accepts a
    // JSON body containing a `refresh_token` (single session) or a bearer
    // token (all sessions) and invalidates accordingly.
    g.POST("/logout", a.Logout)

    // Protected admin endpoints.  All handlers registered on this group
    // execute the JWTAuth middleware before being invoked.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("ADMIN", "COUNSELLOR"))
    auth.GET("/me", a.Me)
}

// RegisterSession registers the counsellor session endpoints.  Starting a
// session is unauthenticated (the access token in the body is the
// credential); the balance endpoint requires the resulting session JWT.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler, jwtSecret string) {
    e.POST("/v1/session", s.Start)

    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("COUNSELLOR"))
    g.GET("/balance", s.Balance)
}

// RegisterBasket registers the basket and checkout endpoints.  Everything
// here requires a counsellor session JWT; the basket belongs to the
// client identity inside it.
func RegisterBasket(e *echo.Echo, b *handler.BasketHandler, co *handler.CheckoutHandler, jwtSecret string) {
    g := e.Group("/v1/basket")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("COUNSELLOR"))

    g.GET("", b.List)
    g.POST("/items", b.Add)
    // Index is the zero-based position in the basket listing.
    g.DELETE("/items/:index", b.Remove)
    g.DELETE("", b.Clear)

    // Checkout consumes the basket; it lives next to it under the same
    // session guard.
    g.POST("/checkout", co.Checkout)
}

// RegisterAdmin registers client directory management and credit top-up
// endpoints.  ADMIN role only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminClientHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("ADMIN"))

    g.POST("/clients", a.Provision)
    g.PATCH("/clients/:id/active", a.SetActive)
    g.POST("/clients/:id/credit", a.TopUp)
    g.GET("/pending-baskets/:ref", a.PendingBasket)
    g.POST("/pending-baskets/:ref/complete", a.CompletePendingBasket)
}
