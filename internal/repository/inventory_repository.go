package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

// 在庫の増減はすべてここを通す
type InventoryRepository interface {
	// 公開中で在庫が足りる商品だけ確保する。確保できなければfalse
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// 注文明細の数量を戻す。削除済みの商品にも戻す
	Restock(ctx context.Context, items []model.OrderItem) error

	// 在庫をadj.StockAfterにして履歴を残す。StockBeforeとDeltaは埋めて返す
	Adjust(ctx context.Context, adj model.InventoryAdjustment) (model.InventoryAdjustment, error)

	ListAdjustments(ctx context.Context, productID int64, page Page) ([]model.InventoryAdjustment, int64, error)
}
