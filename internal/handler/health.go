package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring to verify that the
// service and its database are up.
type Health struct {
	DB *sql.DB
}

func NewHealth(db *sql.DB) *Health { return &Health{DB: db} }

// Check answers "ok" when the database answers a ping within two seconds.
func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "database unavailable"})
	}
	return c.String(http.StatusOK, "ok")
}
