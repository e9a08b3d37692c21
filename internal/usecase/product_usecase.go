package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"
)

// 公開一覧キャッシュの無効化（キャッシュ無しなら何もしない）
type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) error { return nil }

func orNoop(l ListingInvalidator) ListingInvalidator {
	if l == nil {
		return noopInvalidator{}
	}
	return l
}

// xlsx書き出し
type ProductExporter func(w io.Writer, products []model.Product, currency string) error

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
	listing       ListingInvalidator
	exporter      ProductExporter
	currency      string
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
	listing ListingInvalidator,
	exporter ProductExporter,
	currency string,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		listing:       orNoop(listing),
		exporter:      exporter,
		currency:      currency,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	PageInput
	Q          string
	MinPrice   *int64
	MaxPrice   *int64
	CategoryID *int64
	TypeID     *int64
	SizeID     *int64
	Sort       string
}

func (in ListProductsInput) validate() error {
	if err := in.PageInput.validate(); err != nil {
		return err
	}
	if len(in.Q) > 100 {
		return NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	return nil
}

func (in ListProductsInput) query(includeInactive bool) repo.ProductListQuery {
	return repo.ProductListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               strings.TrimSpace(in.Q),
		MinPrice:        in.MinPrice,
		MaxPrice:        in.MaxPrice,
		CategoryID:      in.CategoryID,
		TypeID:          in.TypeID,
		SizeID:          in.SizeID,
		Sort:            in.Sort,
		IncludeInactive: includeInactive,
	}
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (Paged[model.Product], error) {
	if err := in.validate(); err != nil {
		return Paged[model.Product]{}, err
	}

	items, total, err := u.productRepo.ListPublic(ctx, in.query(false))
	if err != nil {
		return Paged[model.Product]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in.PageInput), nil
}

// 管理画面用（非公開も含む）
func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (Paged[model.Product], error) {
	if err := in.validate(); err != nil {
		return Paged[model.Product]{}, err
	}

	items, total, err := u.productRepo.ListPublic(ctx, in.query(true))
	if err != nil {
		return Paged[model.Product]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in.PageInput), nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, dbError(ctx, err)
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

func (u *ProductUsecase) AdminGetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, dbError(ctx, err)
	}
	return p, nil
}

type AdminProductInput struct {
	NameEn        string `json:"name_en"`
	NameSv        string `json:"name_sv"`
	DescriptionEn string `json:"description_en"`
	DescriptionSv string `json:"description_sv"`
	Price         int64  `json:"price"`
	Stock         int64  `json:"stock"`
	ImagePath     string `json:"image_path"`
	CategoryID    *int64 `json:"category_id"`
	TypeID        *int64 `json:"type_id"`
	SizeID        *int64 `json:"size_id"`
	IsActive      bool   `json:"is_active"`
}

func (in AdminProductInput) validate() error {
	var errs fieldErrors
	errs.add(strings.TrimSpace(in.NameEn) == "" && strings.TrimSpace(in.NameSv) == "", "name_en or name_sv required")
	errs.add(len(in.NameEn) > 255 || len(in.NameSv) > 255, "name too long")
	errs.add(in.Price < 0, "price must be >= 0")
	errs.add(in.Stock < 0, "stock must be >= 0")
	return errs.err()
}

func (in AdminProductInput) toModel() model.Product {
	return model.Product{
		NameEn:        strings.TrimSpace(in.NameEn),
		NameSv:        strings.TrimSpace(in.NameSv),
		DescriptionEn: in.DescriptionEn,
		DescriptionSv: in.DescriptionSv,
		Price:         in.Price,
		Stock:         in.Stock,
		ImagePath:     strings.TrimSpace(in.ImagePath),
		CategoryID:    in.CategoryID,
		TypeID:        in.TypeID,
		SizeID:        in.SizeID,
		IsActive:      in.IsActive,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, in.toModel())
	if err != nil {
		return model.Product{}, dbError(ctx, err)
	}

	if err := writeAudit(ctx, u.auditRepo, adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, p.ID, nil, p); err != nil {
		return model.Product{}, dbError(ctx, err)
	}
	return p, nil
}

// stockは在庫APIで更新する（ここでは無視）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	before, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, dbError(ctx, err)
	}

	after := in.toModel()
	after.ID = productID
	after.Stock = before.Stock
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = time.Now()

	if err := u.productRepo.Update(ctx, after); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Product{}, dbError(ctx, err)
	}

	if err := writeAudit(ctx, u.auditRepo, adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, productID, before, after); err != nil {
		return model.Product{}, dbError(ctx, err)
	}
	return after, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}

	if err := writeAudit(ctx, u.auditRepo, adminUserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, productID, map[string]int64{"id": productID}, nil); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	var errs fieldErrors
	errs.add(newStock < 0, "stock must be >= 0")
	errs.add(strings.TrimSpace(reason) == "", "reason required")
	if err := errs.err(); err != nil {
		return err
	}

	adj, err := u.inventoryRepo.Adjust(ctx, model.InventoryAdjustment{
		ProductID:   productID,
		AdminUserID: adminUserID,
		StockAfter:  newStock,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}

	//監査ログを作成（在庫更新）
	//「誰が」「何を」「どの対象に」「どう変えたか」を残す
	if err := writeAudit(ctx, u.auditRepo, adminUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
		map[string]int64{"stock": adj.StockBefore}, map[string]int64{"stock": adj.StockAfter}); err != nil {
		return dbError(ctx, err)
	}

	// 一覧に在庫を出しているので捨てる
	_ = u.listing.Invalidate(ctx)
	return nil
}

// 在庫調整の履歴（新しい順）
func (u *ProductUsecase) AdminListAdjustments(ctx context.Context, productID int64, in PageInput) (Paged[model.InventoryAdjustment], error) {
	if productID <= 0 {
		return Paged[model.InventoryAdjustment]{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return Paged[model.InventoryAdjustment]{}, err
	}
	items, total, err := u.inventoryRepo.ListAdjustments(ctx, productID, repo.Page{Page: in.Page, Limit: in.Limit})
	if err != nil {
		return Paged[model.InventoryAdjustment]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in), nil
}

// 削除済み以外すべてをxlsxで書き出す
func (u *ProductUsecase) AdminExportProducts(ctx context.Context, w io.Writer) error {
	products, err := u.productRepo.ListAll(ctx)
	if err != nil {
		return dbError(ctx, err)
	}
	if err := u.exporter(w, products, u.currency); err != nil {
		return internalError(ctx, err, "export failed")
	}
	return nil
}
