package repository

import (
	"context"

	"datesshop/internal/domain/model"
)

type PaymentGatewayRepository interface {
	FindByCode(ctx context.Context, code string) (model.PaymentGateway, error)
	FindByID(ctx context.Context, id int64) (model.PaymentGateway, error)
}

type PaymentTransactionRepository interface {
	Create(ctx context.Context, t model.PaymentTransaction) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentTransaction, error)
	// インテントIDから注文を引く（差し替え前のインテントも含む）
	FindOrderIDByReference(ctx context.Context, ref string) (int64, error)
}
