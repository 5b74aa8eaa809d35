package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/model"
)

// Context keys written by JWTAuth.
const (
	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

func setIdentity(c echo.Context, u model.User) {
	c.Set(ctxUser, u)
	c.Set(ctxUserID, u.ID)
	c.Set(ctxRole, u.Role)
}

// CurrentUser returns the account JWTAuth attached to c.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// UserID returns the authenticated user's id, or false on public routes.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id > 0
}

// currentUserKey is the rate limiter's view of the caller.
func currentUserKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
