package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActive(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	FindActive(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}
