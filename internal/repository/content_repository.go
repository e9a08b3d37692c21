package repository

import "context"

// 文言・画像系の一覧条件
type ContentListQuery struct {
	Page            int
	Limit           int
	Q               string
	IncludeInactive bool
}

// Date / DatesCollection / Gallery / Section / Faq 共通のCRUD
type ContentRepository[T any] interface {
	List(ctx context.Context, q ContentListQuery) ([]T, int64, error)
	FindByID(ctx context.Context, id int64) (T, error)
	// column = value で1件（Section.key など）
	FindBy(ctx context.Context, column string, value any) (T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id int64) error
}

// コレクションに含めるデーツの入れ替え
type CollectionDatesRepository interface {
	ReplaceDates(ctx context.Context, collectionID int64, dateIDs []int64) error
}
