package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/queue"
	"github.com/iliyamo/asset-management/internal/repository"
)

// MaintenanceHandler serves the maintenance ledger. Every single-record
// operation is scoped to assets assigned to the caller, whatever the role.
type MaintenanceHandler struct {
	Records *repository.MaintenanceRepo
	events  notifier
}

func NewMaintenanceHandler(m *repository.MaintenanceRepo, pub EventPublisher, log *logrus.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{Records: m, events: notifier{pub: pub, log: log}}
}

type recordReq struct {
	MaintenanceDate string `json:"maintenance_date" validate:"required,datetime=2006-01-02"`
	MaintenanceType string `json:"maintenance_type" validate:"required"`
	PerformedBy     string `json:"performed_by" validate:"required"`
	Notes           string `json:"notes"`
	Status          string `json:"status" validate:"required"`
}

func (r *recordReq) normalize() {
	trim(&r.MaintenanceDate, &r.MaintenanceType, &r.PerformedBy, &r.Notes, &r.Status)
}

func (r *recordReq) record() model.MaintenanceRecord {
	return model.MaintenanceRecord{
		MaintenanceDate: r.MaintenanceDate,
		MaintenanceType: r.MaintenanceType,
		PerformedBy:     r.PerformedBy,
		Notes:           r.Notes,
		Status:          r.Status,
	}
}

const (
	msgAssetHidden  = "asset not found or not authorized"
	msgRecordHidden = "record not found or not authorized"
)

// ListForAsset returns the history of an asset assigned to the caller.
func (h *MaintenanceHandler) ListForAsset(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	assetID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Records.ListForAsset(ctx, assetID, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFoundOrUnauthorized(msgAssetHidden)
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create logs maintenance on an asset assigned to the caller.
func (h *MaintenanceHandler) Create(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	assetID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req recordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m := req.record()
	m.AssetID = assetID

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Records.Create(ctx, &m, uid); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFoundOrUnauthorized(msgAssetHidden)
	case err != nil:
		return apperror.Internal("create record failed", err)
	}
	h.events.emit(queue.MaintenanceLogged(uid, m))
	return c.JSON(http.StatusCreated, m)
}

func (h *MaintenanceHandler) Get(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Records.GetForAssignee(ctx, id, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFoundOrUnauthorized(msgRecordHidden)
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update overwrites date, type, performer, notes and status of a record.
func (h *MaintenanceHandler) Update(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req recordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m := req.record()
	m.ID = id

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Records.UpdateForAssignee(ctx, &m, uid); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFoundOrUnauthorized(msgRecordHidden)
	case err != nil:
		return apperror.Internal("update record failed", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MaintenanceHandler) Delete(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Records.DeleteForAssignee(ctx, id, uid); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFoundOrUnauthorized(msgRecordHidden)
	case err != nil:
		return apperror.Internal("delete record failed", err)
	}
	return c.JSON(http.StatusOK, message("record deleted"))
}

// ListAll returns every record for company callers and the records of
// the caller's own assets otherwise, newest maintenance first.
func (h *MaintenanceHandler) ListAll(c echo.Context) error {
	uid, role, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	var list []model.MaintenanceEntry
	if role == model.RoleCompany {
		list, err = h.Records.ListAll(ctx)
	} else {
		list, err = h.Records.ListForAssignee(ctx, uid)
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, list)
}
