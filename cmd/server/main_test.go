package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func preflight(e *echo.Echo, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/dogs", nil)
	req.Header.Set(echo.HeaderOrigin, origin)
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testEcho(debug bool) *echo.Echo {
	e := newEcho(debug, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.GET("/api/dogs", func(c echo.Context) error { return c.JSON(http.StatusOK, []string{}) })
	return e
}

func TestDebugServerAllowsCredentialedCORS(t *testing.T) {
	rec := preflight(testEcho(true), "http://localhost:3000")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodDelete)
}

func TestProductionServerHasNoCORS(t *testing.T) {
	rec := preflight(testEcho(false), "http://localhost:3000")

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}
