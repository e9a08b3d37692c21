package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

type ContactMessageFilter struct {
	Page
	UnreadOnly bool
}

type ContactMessageRepository interface {
	Create(ctx context.Context, m *model.ContactMessage) error
	List(ctx context.Context, f ContactMessageFilter) ([]model.ContactMessage, int64, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type SubscriptionFilter struct {
	Page
	Active *bool
}

type EmailSubscriptionRepository interface {
	FindByEmail(ctx context.Context, email string) (model.EmailSubscription, error)
	FindByToken(ctx context.Context, token string) (model.EmailSubscription, error)
	Create(ctx context.Context, s *model.EmailSubscription) error
	Update(ctx context.Context, s *model.EmailSubscription) error
	List(ctx context.Context, f SubscriptionFilter) ([]model.EmailSubscription, int64, error)
}
