package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/utils"
)

// UserLookup loads the account a token was issued for.
type UserLookup interface {
	User(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth validates a Bearer access token, loads the account it names and
// stores it in the context (see CurrentUser).  The role comes from the
// store, not from the token, so a promotion or demotion applies at once.
// Missing, malformed and expired tokens and unknown users all get 401.
func JWTAuth(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return unauthorized(c, "missing bearer token")
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				if errors.Is(err, utils.ErrExpiredToken) {
					return unauthorized(c, "token expired")
				}
				return unauthorized(c, "invalid token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.User(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return unauthorized(c, "user not found")
				}
				return err
			}

			setIdentity(c, u)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": msg})
}
