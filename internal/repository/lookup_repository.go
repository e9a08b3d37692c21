package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

type LookupRepository interface {
	// kindが空なら全種類
	List(ctx context.Context, kind model.LookupKind, includeInactive bool) ([]model.Lookup, error)
	FindByID(ctx context.Context, id int64) (model.Lookup, error)
	Create(ctx context.Context, l model.Lookup) (model.Lookup, error)
	Update(ctx context.Context, l model.Lookup) error
	Delete(ctx context.Context, id int64) error
}
