package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/database"
)

// Health reports that the process is serving requests.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler probes the store.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{db: db} }

// DB runs a trivial query and returns the store's clock.
func (h *HealthHandler) DB(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	now, err := database.Now(ctx, h.db)
	if err != nil {
		return apperror.Internal("database unreachable", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "connected", "now": now})
}
