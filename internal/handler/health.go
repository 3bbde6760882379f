package handler // declare the package name; contains HTTP handlers

import (
	"context"  // ping deadline
	"net/http" // net/http provides status codes and response helpers
	"time"     // ping timeout

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{DB: db} }

// Health is the liveness probe: the process is up.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready is the readiness probe: the database answers a ping.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.String(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.String(http.StatusOK, "ready")
}
