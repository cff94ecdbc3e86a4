package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated caller's id. ok is false on routes that
// are not behind JWTAuth.
func UserID(c echo.Context) (id uint64, ok bool) {
	id, ok = c.Get(ctxUserID).(uint64)
	return id, ok
}

// Role returns the caller's role as stored at the time of the request, or
// "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// callerKey identifies the caller for rate limiting and request logs:
// the user id when authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
