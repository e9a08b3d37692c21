package repository

import (
	"context"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 条件付きUPDATE 1本。並行チェックアウトでもマイナスにならない
func (r *InventoryGormRepository) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", productID, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *InventoryGormRepository) Restock(ctx context.Context, items []model.OrderItem) error {
	db := r.db.WithContext(ctx).Unscoped()
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		res := db.Model(&model.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity))
		// 物理削除済み（RowsAffected=0）は戻し先がないので無視
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (r *InventoryGormRepository) Adjust(ctx context.Context, adj model.InventoryAdjustment) (model.InventoryAdjustment, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		err := tx.Select("id", "stock").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, adj.ProductID).Error
		if err != nil {
			return notFound(err)
		}

		if err := affected(tx.Model(&model.Product{}).Where("id = ?", p.ID).Update("stock", adj.StockAfter)); err != nil {
			return err
		}

		adj.StockBefore = p.Stock
		adj.Delta = adj.StockAfter - p.Stock
		return tx.Create(&adj).Error
	})
	if err != nil {
		return model.InventoryAdjustment{}, err
	}
	return adj, nil
}

func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID int64, page repo.Page) ([]model.InventoryAdjustment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryAdjustment{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.InventoryAdjustment
	if err := q.Order("created_at desc").Order("id desc").Limit(page.Limit).Offset(page.Offset()).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
