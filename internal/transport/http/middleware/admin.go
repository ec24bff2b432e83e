package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/entity"
	account "github.com/birkolabs/vitrin/internal/service/account"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

// AdminGuard protects admin routes. With AUTH_REQUIRE_ADMIN_TOKEN off
// (the default) it is a pass-through, matching the open admin surface
// the SPA was built against; switched on it demands a bearer token
// with the admin role.
type AdminGuard echo.MiddlewareFunc

// NewAdminGuard builds the guard from configuration.
func NewAdminGuard(cfg config.Config, accounts *account.Service) AdminGuard {
	if !cfg.Auth.RequireAdminToken {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return errorbank.BadRequest("missing bearer token")
			}
			claims, err := accounts.ParseToken(token)
			if err != nil {
				return err
			}
			if claims.Role != entity.RoleAdmin {
				return errorbank.BadRequest("admin access required")
			}
			c.Set("admin_claims", claims)
			return next(c)
		}
	}
}
