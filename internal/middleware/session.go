package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/service"
)

// Context keys set by RequireRole.  "user_id" is also read by the rate
// limiter.
const (
	ctxUser   = "user"
	ctxUserID = "user_id"
)

// CurrentUser returns the user RequireRole stored in the context.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// SessionCookie returns the raw session cookie value, or "".
func SessionCookie(c echo.Context) string {
	ck, err := c.Cookie(service.CookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

type authDetail struct {
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// AuthFailure writes the response for authentication and authorization
// errors.  It reports false when err is not one of them.
func AuthFailure(c echo.Context, err error) (bool, error) {
	var ae *service.AuthError
	switch {
	case errors.As(err, &ae):
		d := authDetail{Msg: "Invalid token", Type: "auth_error.invalid_token"}
		if ae.Kind == service.EmptyToken {
			d = authDetail{Msg: "Empty token", Type: "auth_error.empty_token"}
		}
		return true, c.JSON(http.StatusUnauthorized, echo.Map{"detail": d})
	case errors.Is(err, service.ErrInvalidCredentials):
		return true, c.JSON(http.StatusUnauthorized, echo.Map{"detail": authDetail{
			Msg: "Wrong username or password", Type: "auth_error.invalid_credentials",
		}})
	case errors.Is(err, service.ErrForbidden):
		return true, c.JSON(http.StatusForbidden, echo.Map{"detail": authDetail{
			Msg: "Permission denied", Type: "auth_error.forbidden",
		}})
	}
	return false, nil
}
