package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page            int
	Limit           int
	Q               string
	MinPrice        *int64
	MaxPrice        *int64
	CategoryID      *int64
	TypeID          *int64
	SizeID          *int64
	Sort            string
	IncludeInactive bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//エクスポート用（削除済み以外すべて）
	ListAll(ctx context.Context) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
