package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/queue"
	"github.com/iliyamo/asset-management/internal/repository"
)

// AssetHandler serves the asset registry.
type AssetHandler struct {
	Assets *repository.AssetRepo
	events notifier
}

func NewAssetHandler(a *repository.AssetRepo, pub EventPublisher, log *logrus.Logger) *AssetHandler {
	return &AssetHandler{Assets: a, events: notifier{pub: pub, log: log}}
}

type assetReq struct {
	AssetName      string  `json:"asset_name" validate:"required"`
	AssetType      string  `json:"asset_type" validate:"required"`
	SerialNumber   string  `json:"serial_number" validate:"required"`
	PurchaseDate   string  `json:"purchase_date" validate:"required,datetime=2006-01-02"`
	WarrantyExpiry string  `json:"warranty_expiry" validate:"required,datetime=2006-01-02"`
	UserID         uint64  `json:"user_id" validate:"required"`
	Status         *string `json:"status"`
}

func (r *assetReq) normalize() {
	trim(&r.AssetName, &r.AssetType, &r.SerialNumber, &r.PurchaseDate, &r.WarrantyExpiry)
	trimOptional(&r.Status)
}

func (r *assetReq) asset(id uint64) model.Asset {
	purchase, warranty, uid := r.PurchaseDate, r.WarrantyExpiry, r.UserID
	return model.Asset{
		ID:             id,
		AssetName:      r.AssetName,
		AssetType:      r.AssetType,
		SerialNumber:   r.SerialNumber,
		PurchaseDate:   &purchase,
		WarrantyExpiry: &warranty,
		Status:         r.Status,
		AssignedTo:     &uid,
	}
}

// Create registers an asset and assigns it to user_id. New assets start
// without a status.
func (h *AssetHandler) Create(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	var req assetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	a := req.asset(0)
	a.Status = nil

	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Assets.Create(ctx, &a); {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.NotFound("user not found")
	case err != nil:
		return apperror.Internal("create asset failed", err)
	}
	h.events.emit(queue.AssetAssigned(uid, a, nil))
	return c.JSON(http.StatusCreated, a)
}

// List returns the caller's assets for role user. Company callers get every
// asset, or those of ?user_id when given.
func (h *AssetHandler) List(c echo.Context) error {
	uid, role, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	var assets []model.Asset
	switch {
	case role != model.RoleCompany:
		assets, err = h.Assets.ListByAssignee(ctx, uid)
	case c.QueryParam("user_id") != "":
		filter, perr := strconv.ParseUint(c.QueryParam("user_id"), 10, 64)
		if perr != nil {
			return apperror.Validation("invalid user_id")
		}
		assets, err = h.Assets.ListByAssignee(ctx, filter)
	default:
		assets, err = h.Assets.ListAll(ctx)
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, assets)
}

// Get returns one asset. Role user only sees assets assigned to them;
// anything else is a 404.
func (h *AssetHandler) Get(c echo.Context) error {
	uid, role, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	var a model.Asset
	if role == model.RoleCompany {
		a, err = h.Assets.GetByID(ctx, id)
	} else {
		a, err = h.Assets.GetByIDForAssignee(ctx, id, uid)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("asset not found")
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, a)
}

// Update overwrites every field of an asset, including its assignee and
// status.
func (h *AssetHandler) Update(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	a := req.asset(id)

	ctx, cancel := withTimeout(c)
	defer cancel()

	prev, err := h.Assets.Update(ctx, &a)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("asset not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.NotFound("user not found")
	case err != nil:
		return apperror.Internal("update asset failed", err)
	}
	if prev == nil || *prev != req.UserID {
		h.events.emit(queue.AssetAssigned(uid, a, prev))
	}
	return c.JSON(http.StatusOK, a)
}

// Delete removes an asset and its maintenance history.
func (h *AssetHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Assets.Delete(ctx, id); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("asset not found")
	case err != nil:
		return apperror.Internal("delete asset failed", err)
	}
	return c.JSON(http.StatusOK, message("asset deleted"))
}
