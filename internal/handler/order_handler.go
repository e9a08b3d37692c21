package handler

import (
	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ログインユーザー自身の注文
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := userGroup(e, "/orders", cfg, userRepo)

	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, p)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	orderID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
