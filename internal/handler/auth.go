package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/repository"
	"github.com/iliyamo/asset-management/internal/utils"
)

// AuthHandler serves registration, login and the caller's profile.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type registerReq struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Contact     string `json:"contact"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Password    string `json:"password" validate:"required,password"`
	Role        string `json:"role" validate:"omitempty,oneof=user company"`
}

func (r *registerReq) normalize() {
	trim(&r.Name, &r.Email, &r.Contact, &r.CompanyName, &r.Location, &r.Role)
	r.Email = repository.NormalizeEmail(r.Email)
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *loginReq) normalize() { r.Email = repository.NormalizeEmail(r.Email) }

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register creates an account. The role defaults to user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
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

// Login exchanges credentials for an access token. Unknown email and wrong
// password are indistinguishable to the client.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return apperror.Unauthenticated("invalid credentials")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperror.Unauthenticated("invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return apperror.Internal("issue token failed", err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken: access.Token,
		TokenType:   "Bearer",
		ExpiresAt:   access.Exp,
	})
}

// Profile returns the caller's own record.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, _, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Internal("query failed", err)
	}
	return c.JSON(http.StatusOK, u)
}
