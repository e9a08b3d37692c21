package middleware

import (
	"net/http"

	"datesshop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。roleが無ければ401、ADMIN以外は403
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}

func RequireRole(want model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch {
			case role == "":
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			case model.Role(role) != want:
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}
			return next(c)
		}
	}
}
