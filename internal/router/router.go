package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salones-cra/booking-api/internal/config"
	"github.com/salones-cra/booking-api/internal/handler"
	"github.com/salones-cra/booking-api/internal/middleware"
	"github.com/salones-cra/booking-api/internal/model"
)

// Handlers bundles every handler the API exposes, so registration stays in
// one place.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Blackouts    *handler.BlackoutHandler
	Rooms        *handler.RoomHandler
	Materials    *handler.MaterialHandler
	Inventory    *handler.InventoryHandler
	Reports      *handler.ReportHandler
}

// Register wires all routes onto the Echo instance.
//
// Visibility follows three tiers: public reads (rooms, materials, the
// health check), authenticated booking operations for teachers and
// admins, and ADMIN-only management of blackouts, catalog, inventory and
// reports.  Public reads sit behind the Redis response cache and every
// route behind the rate limiter when Redis is available.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/healthz", handler.Health)

	// ---- Auth ----
	auth := e.Group("/v1/auth", rate)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	me := e.Group("/v1", rate, middleware.JWTAuth(cfg.JWTSecret))
	me.GET("/me", h.Auth.Me)
	me.POST("/logout-all", h.Auth.LogoutAll)

	// ---- Public catalog reads ----
	pub := e.Group("/v1", rate, cache)
	pub.GET("/rooms", h.Rooms.List)
	pub.GET("/materials", h.Materials.List)

	// ---- Reservations ----
	// Listing is visibility-scoped, not gated: anonymous callers simply
	// see nothing.
	e.GET("/v1/reservations", h.Reservations.List, rate, middleware.JWTOptional(cfg.JWTSecret))

	res := e.Group(
		"/v1/reservations",
		rate,
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleTeacher),
	)
	res.POST("", h.Reservations.Create)
	res.PUT("/:id", h.Reservations.Update)
	res.DELETE("/:id", h.Reservations.Delete)

	// ---- Admin ----
	admin := e.Group(
		"/v1",
		rate,
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	admin.POST("/blackouts", h.Blackouts.Create)
	admin.GET("/blackouts", h.Blackouts.List)
	admin.PUT("/blackouts/:id", h.Blackouts.Update)
	admin.DELETE("/blackouts/:id", h.Blackouts.Delete)

	admin.POST("/rooms", h.Rooms.Create)
	admin.DELETE("/rooms/:id", h.Rooms.Delete)

	admin.POST("/materials", h.Materials.Create)
	admin.PUT("/materials/:id", h.Materials.Update)
	admin.DELETE("/materials/:id", h.Materials.Delete)

	admin.POST("/inventory", h.Inventory.Create)
	admin.GET("/inventory", h.Inventory.List)
	admin.PATCH("/inventory/:id", h.Inventory.Adjust)
	admin.DELETE("/inventory/:id", h.Inventory.Delete)

	admin.GET("/reports/rooms", h.Reports.RoomUsage)
	admin.GET("/reports/materials", h.Reports.MaterialUsage)
}
