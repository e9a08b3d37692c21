package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"datesshop/internal/config"
	"datesshop/internal/domain/model"
	"datesshop/internal/middleware"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// 全レスポンス共通の形
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

const (
	defaultPage  = 1
	defaultLimit = 20

	// ゲストカートのトークン
	HeaderCartToken = "X-Cart-Token"
	// 注文の二重送信防止キー
	HeaderIdempotencyKey = "X-Idempotency-Key"
)

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: "ok", Data: data, Errors: []string{}})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: "created", Data: data, Errors: []string{}})
}

func fail(c echo.Context, status int, msg string, errs ...string) error {
	if errs == nil {
		errs = []string{}
	}
	return c.JSON(status, Envelope{Success: false, Message: msg, Errors: errs})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return fail(c, he.Status, he.Message, he.Errors...)
	}

	//500
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
	return fail(c, http.StatusInternalServerError, "internal error")
}

// echo自体のエラー（404ルート・405・bind失敗など）も同じ形で返す
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = strings.ToLower(m)
		}
		if he.Code >= 500 {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("framework error")
		}
		_ = fail(c, he.Code, msg)
		return
	}
	_ = writeError(c, err)
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// ログイン中ならユーザー、そうでなければX-Cart-Tokenのゲスト
func ownerFromContext(c echo.Context) (model.CartOwner, error) {
	if userID, ok := getUserIDFromContext(c); ok {
		return model.CartOwner{UserID: userID}, nil
	}
	tok := strings.TrimSpace(c.Request().Header.Get(HeaderCartToken))
	if tok == "" {
		return model.CartOwner{}, nil
	}
	if _, err := uuid.Parse(tok); err != nil {
		return model.CartOwner{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid cart token")
	}
	return model.CartOwner{GuestToken: tok}, nil
}

func pageInput(c echo.Context) (usecase.PageInput, error) {
	p := usecase.PageInput{Page: defaultPage, Limit: defaultLimit}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		p.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		p.Limit = n
	}
	return p, nil
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryInt64(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &b, nil
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	t, err := usecase.ParseDateTimeRFC3339(c.QueryParam(name))
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return t, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// JWT + token_version一致
func userGroup(e *echo.Echo, prefix string, cfg config.Config, userRepo repository.UserRepository) *echo.Group {
	return e.Group(prefix, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
}

// JWT任意（ゲスト可）
func guestGroup(e *echo.Echo, prefix string, cfg config.Config, userRepo repository.UserRepository) *echo.Group {
	return e.Group(prefix, middleware.OptionalAuth(cfg), middleware.OptionalTokenVersionGuard(userRepo))
}

// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
func adminGroup(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) *echo.Group {
	return e.Group(
		"/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)
}

func mustAdmin(c echo.Context) (int64, error) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return 0, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func deleted(c echo.Context, what string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: fmt.Sprintf("%s deleted", what), Errors: []string{}})
}
