package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fircode/shelter/internal/middleware"
	"github.com/fircode/shelter/internal/service"
)

// AuthHandler bundles dependencies for account and session endpoints.
type AuthHandler struct {
	Accounts *service.Accounts
	Sessions *service.SessionManager
}

func NewAuthHandler(a *service.Accounts, s *service.SessionManager) *AuthHandler {
	return &AuthHandler{Accounts: a, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Register creates a regular account.  It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	u, err := h.Accounts.Register(c.Request().Context(), service.NewUser{
		Email:      req.Email,
		Phone:      req.PhoneNumber,
		FirstName:  req.FirstName,
		SecondName: req.SecondName,
		Password:   req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newUserProfile(u))
}

// Login checks the credentials and sets the session cookie.  Unknown email
// and wrong password produce the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	cookie, u, err := h.Sessions.CreateSession(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, newUserProfile(u))
}

// Logout drops the session, if any, and clears the cookie.  It needs no
// valid session so a stale cookie can always be removed.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cookie, err := h.Sessions.CloseSession(ctx, middleware.SessionCookie(c))
	c.SetCookie(cookie)
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newUserProfile(u))
}

// ChangePassword replaces the caller's password and ends their other
// sessions.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := h.Accounts.ChangePassword(c.Request().Context(), u.Email, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Sessions.RevokeOthers(ctx, u.Email, middleware.SessionCookie(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMe removes the caller's account and clears the cookie.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Accounts.Delete(ctx, u.Email); err != nil {
		return respondError(c, err)
	}
	// The session row is gone with the user; this only builds the cookie.
	cookie, _ := h.Sessions.CloseSession(ctx, "")
	c.SetCookie(cookie)
	return c.NoContent(http.StatusNoContent)
}

// UsersStat lists users by contribution, without private fields.
func (h *AuthHandler) UsersStat(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Accounts.Leaderboard(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userStat, 0, len(users))
	for _, u := range users {
		out = append(out, userStat{FirstName: u.FirstName, SecondName: u.SecondName, Contribution: u.Contribution})
	}
	return c.JSON(http.StatusOK, out)
}
