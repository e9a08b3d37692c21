package handler

import (
	"errors"
	"net/http"

	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"
	auth "datesshop/internal/usecase/auth_usecase"
	"datesshop/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// /users の会員登録・ログイン・本人情報
type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	customerUC *usecase.CustomerUsecase
	loginLimit echo.MiddlewareFunc // ログインだけ厳しめのレート制限
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	customerUC *usecase.CustomerUsecase,
	loginLimit echo.MiddlewareFunc,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		customerUC: customerUC,
		loginLimit: loginLimit,
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.POST("/users/register", h.register)
	if h.loginLimit != nil {
		e.POST("/users/login", h.login, h.loginLimit)
	} else {
		e.POST("/users/login", h.login)
	}

	me := userGroup(e, "/users", cfg, userRepo)
	me.GET("/me", h.me)
	me.PUT("/me", h.updateMe)

	admin := adminGroup(e, cfg, userRepo)
	admin.GET("/customers", h.listCustomers)
	admin.PUT("/customers/:id/status", h.setCustomerStatus)
}

// POST /users/register
func (h *AuthHandler) register(c echo.Context) error {
	var req auth.RegisterUserInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.registerUC.Execute(c.Request().Context(), req)
	if err != nil {
		return writeAuthError(c, err)
	}
	return created(c, out)
}

// POST /users/login
func (h *AuthHandler) login(c echo.Context) error {
	var req auth.LoginInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	// bodyに無ければゲストカートのヘッダーを見る
	if req.GuestToken == "" {
		req.GuestToken = c.Request().Header.Get(HeaderCartToken)
	}

	out, err := h.loginUC.Execute(c.Request().Context(), req)
	if err != nil {
		return writeAuthError(c, err)
	}
	return ok(c, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	out, err := h.customerUC.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AuthHandler) updateMe(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	var req usecase.UpdateProfileInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.customerUC.UpdateMe(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AuthHandler) listCustomers(c echo.Context) error {
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.customerUC.AdminList(c.Request().Context(), usecase.ListCustomersInput{
		PageInput: p,
		Q:         c.QueryParam("q"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AuthHandler) setCustomerStatus(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req setActiveRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "validation error", "is_active required")
	}

	out, err := h.customerUC.AdminSetActive(c.Request().Context(), adminID, userID, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// authパッケージのエラーをステータスへ
func writeAuthError(c echo.Context, err error) error {
	var fe *validator.FieldErrors
	switch {
	case errors.As(err, &fe):
		return fail(c, http.StatusBadRequest, "validation error", fe.Fields...)
	case errors.Is(err, validator.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "validation error", "email and password required")
	case errors.Is(err, validator.ErrEmailAlreadyUsed):
		return fail(c, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrUserInactive):
		return fail(c, http.StatusForbidden, "account disabled")
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("auth")
	return fail(c, http.StatusInternalServerError, "internal error")
}
