package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/queue"
	"github.com/iliyamo/asset-management/internal/repository"
)

// CatalogRoute is the path of the public catalog listing; its cached
// responses are purged whenever the catalog changes.
const CatalogRoute = "/services"

// CacheInvalidator drops cached responses of a route.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, route string)
}

// ServiceHandler serves the service catalog and service requests.
type ServiceHandler struct {
	Services *repository.ServiceRepo
	cache    CacheInvalidator
	events   notifier
}

func NewServiceHandler(s *repository.ServiceRepo, cache CacheInvalidator, pub EventPublisher, log *logrus.Logger) *ServiceHandler {
	return &ServiceHandler{Services: s, cache: cache, events: notifier{pub: pub, log: log}}
}

type serviceReq struct {
	ServiceName string  `json:"service_name" validate:"required"`
	Description *string `json:"description"`
}

func (r *serviceReq) normalize() {
	trim(&r.ServiceName)
	trimOptional(&r.Description)
}

type serviceRequestReq struct {
	ServiceID uint64 `json:"service_id" validate:"required"`
}

func (r *serviceRequestReq) normalize() {}

// List returns the public catalog.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Services.List(ctx)
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create adds a catalog entry and purges the cached catalog.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := bind(c, &req); err != nil {
		return err
	}
	s := model.Service{ServiceName: req.ServiceName, Description: req.Description}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Services.Create(ctx, &s); err != nil {
		return apperror.Internal("create service failed", err)
	}
	if h.cache != nil {
		h.cache.Invalidate(ctx, CatalogRoute)
	}
	return c.JSON(http.StatusCreated, s)
}

// Request records that the caller asked for a catalog entry.
func (h *ServiceHandler) Request(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	var req serviceRequestReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sr := model.ServiceRequest{UserID: uid, ServiceID: req.ServiceID}

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Services.CreateRequest(ctx, &sr); {
	case errors.Is(err, repository.ErrServiceNotFound):
		return apperror.NotFound("invalid service id")
	case err != nil:
		return apperror.Internal("create request failed", err)
	}
	h.events.emit(queue.ServiceRequested(sr))
	return c.JSON(http.StatusCreated, sr)
}

// ListMine returns the caller's service requests.
func (h *ServiceHandler) ListMine(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Services.ListRequestsByUser(ctx, uid)
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, list)
}
