package router // package router wires HTTP routes to handlers and middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/skysign/hoarding-rental/internal/config"
	"github.com/skysign/hoarding-rental/internal/handler"
	"github.com/skysign/hoarding-rental/internal/lifecycle"
	"github.com/skysign/hoarding-rental/internal/middleware"
)

// Handlers bundles everything RegisterRoutes needs so main.go passes a
// single struct instead of a growing argument list.
type Handlers struct {
	Booking    *handler.BookingHandler
	Design     *handler.DesignHandler
	Fitter     *handler.FitterHandler
	Escalation *handler.EscalationHandler
}

// RegisterRoutes registers the full API surface.
//
// Everything under /v1 requires a valid access token; each mutating
// route additionally enforces the role set allowed to perform that
// transition.  Snapshot reads sit behind the Redis rate limiter and
// response cache because dashboards poll them aggressively — both
// middlewares become pass-throughs when rdb is nil.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Booking token lifecycle.
	v1.POST("/hoardings/:id/tokens", h.Booking.CreateToken,
		middleware.RequireRole(lifecycle.CreateRoles...))
	v1.POST("/tokens/:id/confirm", h.Booking.ConfirmToken,
		middleware.RequireRole(lifecycle.ConfirmRoles...))
	v1.POST("/tokens/:id/cancel", h.Booking.CancelToken,
		middleware.RequireRole(lifecycle.CancelRoles...))
	v1.POST("/hoardings/:id/finalize", h.Booking.FinalizeHoarding,
		middleware.RequireRole(lifecycle.FinalizeRoles...))

	// Design and installation pipelines.
	v1.PATCH("/tokens/:id/design-status", h.Design.UpdateDesignStatus,
		middleware.RequireRole(lifecycle.RoleDesigner))
	v1.POST("/tokens/:id/fitter", h.Fitter.AssignFitter,
		middleware.RequireRole(lifecycle.AssignRoles...))
	v1.PATCH("/tokens/:id/fitter-status", h.Fitter.UpdateFitterStatus,
		middleware.RequireRole(lifecycle.RoleFitter))

	// Read-only snapshots: any authenticated role, rate limited and cached.
	reads := v1.Group("",
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	reads.GET("/tokens/:id", h.Booking.GetToken)
	reads.GET("/hoardings/:id/tokens", h.Booking.ListHoardingTokens)
	reads.GET("/hoardings/:id/escalation", h.Escalation.Preview)
}
