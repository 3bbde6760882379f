package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/fircode/shelter/internal/handler"    // endpoint implementations
	"github.com/fircode/shelter/internal/middleware" // session, cache and rate limit middleware
	"github.com/fircode/shelter/internal/model"      // role names
	"github.com/fircode/shelter/internal/service"    // session guard
)

// Deps carries everything the routes are built from.  Cache, CachePurge
// and RateLimit may be nil.
type Deps struct {
	Guard        *service.Guard
	Auth         *handler.AuthHandler
	Dogs         *handler.DogHandler
	FeedRequests *handler.FeedRequestHandler
	Health       *handler.HealthHandler

	Cache      echo.MiddlewareFunc // public GET responses
	CachePurge echo.MiddlewareFunc // invalidates Cache after writes
	RateLimit  echo.MiddlewareFunc
}

// Register mounts the probes at the root and the API under /api.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)
	e.GET("/readyz", d.Health.Ready)

	cache := orPass(d.Cache)
	api := e.Group("/api", orPass(d.RateLimit), orPass(d.CachePurge))

	// Any logged-in user, or admins only.
	session := middleware.RequireRole(d.Guard, model.RoleAny)
	admin := middleware.RequireRole(d.Guard, model.RoleAdmin)

	// Accounts and sessions.  Logout works without a valid session so a
	// stale cookie can always be cleared.
	api.POST("/registration", d.Auth.Register)
	api.POST("/login", d.Auth.Login)
	api.POST("/logout", d.Auth.Logout)
	api.GET("/user", d.Auth.Me, session)
	api.PUT("/user/password", d.Auth.ChangePassword, session)
	api.DELETE("/user", d.Auth.DeleteMe, session)
	api.GET("/users_stat", d.Auth.UsersStat, cache)

	// Dogs: public reads, admin writes.
	api.GET("/dogs", d.Dogs.List, cache)
	api.GET("/dog/:id", d.Dogs.Get, cache)
	api.POST("/dog", d.Dogs.Create, admin)
	api.PUT("/dog", d.Dogs.Update, admin)
	api.DELETE("/dog/:id", d.Dogs.Delete, admin)

	// Feed requests.
	api.GET("/feed_requests", d.FeedRequests.ListPending, cache)
	api.GET("/feed_requests/current", d.FeedRequests.ListMine, session)
	api.POST("/feed_request", d.FeedRequests.Submit, session)
	api.POST("/feed_requests/approve", d.FeedRequests.Approve, admin)
	api.DELETE("/feed_requests/:id", d.FeedRequests.Withdraw, session)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
