package handler

import (
	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カテゴリ・種類・サイズ・注文ステータスのマスタ
type LookupHandler struct {
	uc *usecase.LookupUsecase
}

func NewLookupHandler(uc *usecase.LookupUsecase) *LookupHandler {
	return &LookupHandler{uc: uc}
}

func (h *LookupHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.GET("/lookups", h.list)

	admin := adminGroup(e, cfg, userRepo)
	admin.GET("/lookups", h.adminList)
	admin.POST("/lookups", h.create)
	admin.PUT("/lookups/:id", h.update)
	admin.DELETE("/lookups/:id", h.delete)
}

func (h *LookupHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("kind"), false)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *LookupHandler) adminList(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("kind"), true)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *LookupHandler) create(c echo.Context) error {
	var req usecase.LookupInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *LookupHandler) update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.LookupInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *LookupHandler) delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return deleted(c, "lookup")
}
