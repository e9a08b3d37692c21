package repository

import (
	"context"
	"errors"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

const (
	adminOrderDefaultLimit = 50
	adminOrderMaxLimit     = 100
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 空の値では引かない（public_token等は空文字で一致させない）
func (r *OrderGormRepository) findBy(ctx context.Context, column string, value any) (model.Order, error) {
	if s, ok := value.(string); ok && s == "" {
		return model.Order{}, repo.ErrNotFound
	}
	var o model.Order
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&o).Error; err != nil {
		return model.Order{}, notFound(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.findBy(ctx, "id", orderID)
}

// ゲストの注文確認ページ用
func (r *OrderGormRepository) FindByPublicToken(ctx context.Context, token string) (model.Order, error) {
	return r.findBy(ctx, "public_token", token)
}

// webhookでインテントIDから注文を引く
func (r *OrderGormRepository) FindByPaymentReference(ctx context.Context, ref string) (model.Order, error) {
	return r.findBy(ctx, "payment_reference", ref)
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	o, err := r.findBy(ctx, "idempotency_key", key)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return model.Order{}, false, nil
	case err != nil:
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, conflict(err)
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status))
}

func (r *OrderGormRepository) UpdatePayment(ctx context.Context, orderID int64, gatewayID int64, reference string) error {
	return affected(r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_gateway_id": gatewayID,
			"payment_reference":  reference,
		}))
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, page, limit)
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	page, limit := max(f.Page, 1), f.Limit
	if limit <= 0 || limit > adminOrderMaxLimit {
		limit = adminOrderDefaultLimit
	}

	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.From != nil {
			db = db.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("created_at <= ?", *f.To)
		}
		return db
	}, page, limit)
}

// 件数 + 新しい順の1ページ
func (r *OrderGormRepository) list(ctx context.Context, where func(*gorm.DB) *gorm.DB, page, limit int) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(where)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := []model.Order{}
	if err := q.Scopes(paginate(page, limit)).Order("id desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
