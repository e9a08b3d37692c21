package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

// 注文明細はチェックアウト時に一度だけ書く
type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	// 一覧画面用。注文IDごとにまとめて返す
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
