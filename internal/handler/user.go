package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/repository"
	"github.com/iliyamo/asset-management/internal/utils"
)

// UserHandler serves the user directory.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	Contact     string `json:"contact" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Role        string `json:"role" validate:"omitempty,oneof=user company"`
}

func (r *createUserReq) normalize() {
	trim(&r.Name, &r.Email, &r.Contact, &r.CompanyName, &r.Location, &r.Role)
	r.Email = repository.NormalizeEmail(r.Email)
}

type updateUserReq struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Contact     string `json:"contact"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
}

func (r *updateUserReq) normalize() {
	trim(&r.Name, &r.Email, &r.Contact, &r.CompanyName, &r.Location)
	r.Email = repository.NormalizeEmail(r.Email)
}

func createUserError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return apperror.Conflict("email already exists")
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return apperror.Validation(fmt.Sprintf("password must be at most %d bytes", utils.MaxPasswordBytes))
	}
	return apperror.Internal("create user failed", err)
}

// selfOrCompany allows company callers and the user addressed by id.
func selfOrCompany(c echo.Context, id uint64) error {
	uid, role, err := caller(c)
	if err != nil {
		return err
	}
	if role != model.RoleCompany && uid != id {
		return apperror.Forbidden("forbidden")
	}
	return nil
}

// Create adds a user on behalf of a company account.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u := model.User{
		Name:        req.Name,
		Email:       req.Email,
		Contact:     req.Contact,
		CompanyName: req.CompanyName,
		Location:    req.Location,
		Role:        req.Role,
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		return createUserError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := selfOrCompany(c, id); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update overwrites the profile fields; omitted optional fields are
// cleared.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := selfOrCompany(c, id); err != nil {
		return err
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u := model.User{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Contact:     req.Contact,
		CompanyName: req.CompanyName,
		Location:    req.Location,
	}
	switch err := h.Users.Update(ctx, &u); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("user not found")
	case errors.Is(err, repository.ErrEmailExists):
		return apperror.Conflict("email already exists")
	case err != nil:
		return apperror.Internal("update user failed", err)
	}

	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a user, unassigning their assets and dropping their
// service requests.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	switch err := h.Users.Delete(ctx, id); {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("user not found")
	case err != nil:
		return apperror.Internal("delete user failed", err)
	}
	return c.JSON(http.StatusOK, message("user deleted"))
}
