package handler

import (
	"context"

	"datesshop/internal/config"
	"datesshop/internal/domain/model"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// *usecase.CartUsecase
type CartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (usecase.CartResponse, error)
	AddToCart(ctx context.Context, owner model.CartOwner, in usecase.AddCartInput) (usecase.CartResponse, error)
	UpdateCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64, in usecase.UpdateCartItemInput) (usecase.CartResponse, error)
	DeleteCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64) (usecase.CartResponse, error)
	ClearCart(ctx context.Context, owner model.CartOwner) (usecase.CartResponse, error)
}

// /cartのHTTP。ログインしていなければX-Cart-Tokenのゲストカート
type CartHandler struct {
	uc CartService
}

// DI
func NewCartHandler(uc CartService) *CartHandler {
	return &CartHandler{uc: uc}
}

// /cart, /cart/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := guestGroup(e, "/cart", cfg, userRepo)

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clearCart)
	g.PATCH("/:id", h.patchItem)
	g.DELETE("/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.AddCartInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddToCart(c.Request().Context(), owner, req)
	if err != nil {
		return writeError(c, err)
	}
	// 払い出したトークンはヘッダーでも返す
	if out.GuestToken != "" {
		c.Response().Header().Set(HeaderCartToken, out.GuestToken)
	}
	return ok(c, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	itemID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.UpdateCartItemInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), owner, itemID, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	itemID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.DeleteCartItem(c.Request().Context(), owner, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	owner, err := ownerFromContext(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ClearCart(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
