package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/asset-management/internal/handler"
)

// Routes take their middleware individually. An empty-prefix group with
// middleware would also match unknown paths and answer them with 401.

func registerUsers(e *echo.Echo, h *handler.UserHandler, auth, company echo.MiddlewareFunc) {
	e.POST("/users", h.Create, auth, company)
	e.GET("/users", h.List, auth, company)
	e.GET("/users/:id", h.Get, auth)
	e.PUT("/users/:id", h.Update, auth)
	e.DELETE("/users/:id", h.Delete, auth, company)
}

func registerAssets(e *echo.Echo, h *handler.AssetHandler, auth, company echo.MiddlewareFunc) {
	e.POST("/assets", h.Create, auth, company)
	e.GET("/assets", h.List, auth)
	e.GET("/assets/:id", h.Get, auth)
	e.PUT("/assets/:id", h.Update, auth, company)
	e.DELETE("/assets/:id", h.Delete, auth, company)
}

func registerMaintenance(e *echo.Echo, h *handler.MaintenanceHandler, auth echo.MiddlewareFunc) {
	e.GET("/assets/:id/maintenance", h.ListForAsset, auth)
	e.POST("/assets/:id/maintenance", h.Create, auth)
	e.GET("/maintenance/all", h.ListAll, auth)
	e.GET("/maintenance/:id", h.Get, auth)
	e.PUT("/maintenance/:id", h.Update, auth)
	e.DELETE("/maintenance/:id", h.Delete, auth)
}

func registerServices(e *echo.Echo, h *handler.ServiceHandler, auth, company echo.MiddlewareFunc) {
	e.POST("/services", h.Create, auth, company)
	e.POST("/user-services", h.Request, auth)
	e.GET("/user-services", h.ListMine, auth)
}
