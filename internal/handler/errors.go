package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fircode/shelter/internal/middleware"
	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/service"
)

// requestTimeout bounds the store calls of one request.  Password hashing
// runs outside of it: bcrypt at the default cost can take seconds.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError maps service errors onto status codes.  Auth errors use the
// {"detail": {...}} shape; everything else is {"error": msg}.
func respondError(c echo.Context, err error) error {
	if handled, werr := middleware.AuthFailure(c, err); handled {
		return werr
	}
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "User already exists"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	slog.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, &service.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}

// actor returns the user resolved by middleware.RequireRole.
func actor(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, &service.AuthError{Kind: service.EmptyToken}
	}
	return u, nil
}
