package middleware

// identity.go holds the caller identity helper shared by the rate limiter.

import "github.com/labstack/echo/v4"

// userID returns the email of the authenticated caller, or "guest" when
// the route is public or the session has not been resolved yet.
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.Email != "" {
		return u.Email
	}
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}
