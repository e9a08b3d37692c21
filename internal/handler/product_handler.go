package handler

import (
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

// 一覧の検索条件をクエリから組み立てる（admin一覧と共通）
func listProductsInput(c echo.Context) (usecase.ListProductsInput, error) {
	var in usecase.ListProductsInput
	p, err := pageInput(c)
	if err != nil {
		return in, err
	}
	in.PageInput = p
	in.Q = c.QueryParam("q")
	in.Sort = c.QueryParam("sort")

	if in.MinPrice, err = queryInt64(c, "min_price"); err != nil {
		return in, err
	}
	if in.MaxPrice, err = queryInt64(c, "max_price"); err != nil {
		return in, err
	}
	if in.CategoryID, err = queryInt64(c, "category_id"); err != nil {
		return in, err
	}
	if in.TypeID, err = queryInt64(c, "type_id"); err != nil {
		return in, err
	}
	if in.SizeID, err = queryInt64(c, "size_id"); err != nil {
		return in, err
	}
	return in, nil
}

func (h *ProductHandler) list(c echo.Context) error {
	in, err := listProductsInput(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, p)
}
