package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/repository"
	"github.com/iliyamo/asset-management/internal/utils"
)

// RoleLookup resolves a user's current role. *repository.UserRepo
// satisfies it.
type RoleLookup interface {
	RoleByID(ctx context.Context, id uint64) (string, error)
}

// JWTAuth validates the Bearer access token and stores the caller's id and
// role on the context. The role is read from storage rather than from the
// token claim, so a role change or a deleted account takes effect on the
// next request.
func JWTAuth(secret string, roles RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(auth, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return apperror.Unauthenticated("missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return apperror.Unauthenticated("invalid or expired token")
			}
			uid, _ := claims.UserID()

			role, err := roles.RoleByID(c.Request().Context(), uid)
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.Unauthenticated("invalid or expired token")
			}
			if err != nil {
				return apperror.Internal("role lookup failed", err)
			}

			c.Set(ctxUserID, uid)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
