package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // status for store failures

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/fircode/shelter/internal/service" // session resolution and role checks
)

// RequireRole returns a middleware that resolves the session cookie through
// guard and enforces role (model.RoleAny or model.RoleAdmin).  A missing
// or invalid session is a 401, a user without the role gets a 403.  On
// success the user is stored in the context for CurrentUser.
func RequireRole(guard *service.Guard, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := guard.Authorize(c.Request().Context(), SessionCookie(c), role)
			if err != nil {
				if handled, werr := AuthFailure(c, err); handled {
					return werr
				}
				c.Logger().Errorf("session lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			c.Set(ctxUser, u)
			c.Set(ctxUserID, u.Email)
			return next(c)
		}
	}
}
