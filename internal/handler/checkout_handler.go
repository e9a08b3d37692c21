package handler

import (
	"context"
	"io"
	"net/http"

	"datesshop/internal/config"
	"datesshop/internal/domain/model"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// webhook本文の上限
const maxWebhookBytes = 64 << 10

// *usecase.CheckoutUsecase
type CheckoutService interface {
	PlaceOrder(ctx context.Context, owner model.CartOwner, in usecase.CheckoutInput) (usecase.CheckoutOutput, error)
	GetByToken(ctx context.Context, token string) (usecase.OrderOutput, error)
	RetryPayment(ctx context.Context, token string) (usecase.CheckoutOutput, error)
	ConfirmPayment(ctx context.Context, token string) (usecase.OrderOutput, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// /checkout と決済プロバイダのwebhook
type CheckoutHandler struct {
	uc CheckoutService
}

func NewCheckoutHandler(uc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := guestGroup(e, "/checkout", cfg, userRepo)
	g.POST("", h.placeOrder)

	// 公開トークンを知っていれば誰でも見られる
	e.GET("/checkout/:token", h.getByToken)
	e.POST("/checkout/:token/payment", h.retryPayment)
	e.POST("/checkout/:token/confirm", h.confirm)

	e.POST("/payments/webhook", h.webhook)
}

func (h *CheckoutHandler) placeOrder(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.CheckoutInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	req.IdempotencyKey = c.Request().Header.Get(HeaderIdempotencyKey)

	out, err := h.uc.PlaceOrder(c.Request().Context(), owner, req)
	if err != nil {
		// 注文ができていれば決済失敗でも注文を返す
		if he, ok := usecase.AsHTTPError(err); ok && out.Order.ID != 0 {
			return c.JSON(he.Status, Envelope{Success: false, Message: he.Message, Data: out, Errors: []string{}})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: "order placed", Data: out, Errors: []string{}})
}

func (h *CheckoutHandler) getByToken(c echo.Context) error {
	out, err := h.uc.GetByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CheckoutHandler) retryPayment(c echo.Context) error {
	out, err := h.uc.RetryPayment(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CheckoutHandler) confirm(c echo.Context) error {
	out, err := h.uc.ConfirmPayment(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// 署名検証のため生の本文を読む
func (h *CheckoutHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}
