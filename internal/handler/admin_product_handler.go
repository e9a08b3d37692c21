package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"datesshop/internal/config"
	"datesshop/internal/infra/export"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫更新の入力
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/products", h.listProducts)
	// :id より先に登録
	admin.GET("/products/export", h.exportProducts)
	admin.GET("/products/:id", h.getProduct)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
	admin.GET("/inventory/:product_id/adjustments", h.listAdjustments)
}

func (h *AdminProductHandler) listProducts(c echo.Context) error {
	in, err := listProductsInput(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AdminListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AdminProductHandler) getProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.uc.AdminGetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, p)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AdminProductInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AdminProductInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return deleted(c, "product")
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	productID, err := paramID(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	var req InventoryUpdateRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Stock == nil {
		return fail(c, http.StatusBadRequest, "validation error", "stock required")
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, *req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	p, err := h.uc.AdminGetProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, p)
}

func (h *AdminProductHandler) listAdjustments(c echo.Context) error {
	productID, err := paramID(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	page, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminListAdjustments(c.Request().Context(), productID, page)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// xlsxをダウンロードさせる。途中で失敗したら封筒で返せるようにバッファへ書く
func (h *AdminProductHandler) exportProducts(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.uc.AdminExportProducts(c.Request().Context(), &buf); err != nil {
		return writeError(c, err)
	}

	name := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
