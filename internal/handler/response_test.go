package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"datesshop/internal/middleware"
	"datesshop/internal/usecase"
	auth "datesshop/internal/usecase/auth_usecase"
	"datesshop/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestEnvelope_OkAndFail(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	require.NoError(t, ok(c, map[string]int{"n": 1}))
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Message)
	// errorsは空配列で返す
	assert.Contains(t, rec.Body.String(), `"errors":[]`)

	c, rec = newContext(http.MethodGet, "/")
	require.NoError(t, fail(c, http.StatusBadRequest, "validation error", "name required"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, []string{"name required"}, env.Errors)
}

func TestWriteError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	require.NoError(t, writeError(c, usecase.NewValidationError("qty must be >= 1")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "validation error", env.Message)
	assert.Equal(t, []string{"qty must be >= 1"}, env.Errors)

	// 包んだエラーでもステータスを拾う
	c, rec = newContext(http.MethodGet, "/")
	wrapped := fmt.Errorf("checkout: %w", usecase.NewHTTPError(http.StatusConflict, "out of stock"))
	require.NoError(t, writeError(c, wrapped))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newContext(http.MethodGet, "/")
	require.NoError(t, writeError(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeEnvelope(t, rec).Message)
}

func TestHTTPErrorHandler_FrameworkErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.GET("/products", func(c echo.Context) error { return ok(c, nil) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "not found", env.Message)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", decodeEnvelope(t, rec).Message)
}

func TestPageInput(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/products")
	p, err := pageInput(c)
	require.NoError(t, err)
	assert.Equal(t, usecase.PageInput{Page: 1, Limit: 20}, p)

	c, _ = newContext(http.MethodGet, "/products?page=3&limit=50")
	p, err = pageInput(c)
	require.NoError(t, err)
	assert.Equal(t, usecase.PageInput{Page: 3, Limit: 50}, p)

	c, _ = newContext(http.MethodGet, "/products?page=x")
	_, err = pageInput(c)
	he, isHTTP := usecase.AsHTTPError(err)
	require.True(t, isHTTP)
	assert.Equal(t, "invalid page", he.Message)

	c, _ = newContext(http.MethodGet, "/products?limit=ten")
	_, err = pageInput(c)
	he, isHTTP = usecase.AsHTTPError(err)
	require.True(t, isHTTP)
	assert.Equal(t, "invalid limit", he.Message)
}

func TestOwnerFromContext(t *testing.T) {
	t.Run("logged in user wins", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/cart")
		c.Request().Header.Set(HeaderCartToken, "c9d7a0a4-7c1f-4a53-9d53-0c5f7fb0b6a1")
		c.Set(middleware.CtxUserIDKey, int64(8))

		owner, err := ownerFromContext(c)
		require.NoError(t, err)
		assert.Equal(t, int64(8), owner.UserID)
		assert.Empty(t, owner.GuestToken)
	})

	t.Run("guest token", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/cart")
		c.Request().Header.Set(HeaderCartToken, " c9d7a0a4-7c1f-4a53-9d53-0c5f7fb0b6a1 ")

		owner, err := ownerFromContext(c)
		require.NoError(t, err)
		assert.Equal(t, "c9d7a0a4-7c1f-4a53-9d53-0c5f7fb0b6a1", owner.GuestToken)
	})

	t.Run("no owner yet", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/cart")
		owner, err := ownerFromContext(c)
		require.NoError(t, err)
		assert.Zero(t, owner.UserID)
		assert.Empty(t, owner.GuestToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/cart")
		c.Request().Header.Set(HeaderCartToken, "not-a-uuid")
		_, err := ownerFromContext(c)
		he, isHTTP := usecase.AsHTTPError(err)
		require.True(t, isHTTP)
		assert.Equal(t, http.StatusBadRequest, he.Status)
		assert.Equal(t, "invalid cart token", he.Message)
	})
}

func TestParamAndQueryHelpers(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/admin/orders?user_id=4&active=true&from=2026-01-01T00:00:00Z")
	c.SetParamNames("id")
	c.SetParamValues("12")

	id, err := paramID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	uid, err := queryInt64(c, "user_id")
	require.NoError(t, err)
	require.NotNil(t, uid)
	assert.Equal(t, int64(4), *uid)

	active, err := queryBool(c, "active")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, *active)

	from, err := queryTime(c, "from")
	require.NoError(t, err)
	require.NotNil(t, from)

	missing, err := queryTime(c, "to")
	require.NoError(t, err)
	assert.Nil(t, missing)

	c.SetParamValues("-1")
	_, err = paramID(c, "id")
	he, isHTTP := usecase.AsHTTPError(err)
	require.True(t, isHTTP)
	assert.Equal(t, "invalid id", he.Message)

	c, _ = newContext(http.MethodGet, "/admin/audit-logs?from=yesterday")
	_, err = queryTime(c, "from")
	he, isHTTP = usecase.AsHTTPError(err)
	require.True(t, isHTTP)
	assert.Equal(t, "invalid from", he.Message)
}

func TestBind_InvalidBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dst usecase.AddCartInput
	he, isHTTP := usecase.AsHTTPError(bind(c, &dst))
	require.True(t, isHTTP)
	assert.Equal(t, "invalid body", he.Message)
}

func TestWriteAuthError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"fields", &validator.FieldErrors{Fields: []string{"invalid email"}}, http.StatusBadRequest, "validation error"},
		{"missing input", validator.ErrInvalidInput, http.StatusBadRequest, "validation error"},
		{"duplicate email", validator.ErrEmailAlreadyUsed, http.StatusConflict, "email already registered"},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"inactive", auth.ErrUserInactive, http.StatusForbidden, "account disabled"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/auth/login")
			require.NoError(t, writeAuthError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decodeEnvelope(t, rec).Message)
		})
	}
}
