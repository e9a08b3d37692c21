package repository

import (
	"context"
	"errors"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type PaymentGatewayGormRepository struct {
	db *gorm.DB
}

func NewPaymentGatewayGormRepository(db *gorm.DB) *PaymentGatewayGormRepository {
	return &PaymentGatewayGormRepository{db: db}
}

func (r *PaymentGatewayGormRepository) FindByCode(ctx context.Context, code string) (model.PaymentGateway, error) {
	var g model.PaymentGateway
	err := r.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentGateway{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentGateway{}, err
	}
	return g, nil
}

func (r *PaymentGatewayGormRepository) FindByID(ctx context.Context, id int64) (model.PaymentGateway, error) {
	var g model.PaymentGateway
	err := r.db.WithContext(ctx).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentGateway{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentGateway{}, err
	}
	return g, nil
}

type PaymentTransactionGormRepository struct {
	db *gorm.DB
}

func NewPaymentTransactionGormRepository(db *gorm.DB) *PaymentTransactionGormRepository {
	return &PaymentTransactionGormRepository{db: db}
}

func (r *PaymentTransactionGormRepository) Create(ctx context.Context, t model.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(&t).Error
}

func (r *PaymentTransactionGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentTransaction, error) {
	var items []model.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return []model.PaymentTransaction{}, err
	}
	return items, nil
}

func (r *PaymentTransactionGormRepository) FindOrderIDByReference(ctx context.Context, ref string) (int64, error) {
	if ref == "" {
		return 0, repo.ErrNotFound
	}
	var t model.PaymentTransaction
	err := r.db.WithContext(ctx).
		Select("order_id").
		Where("external_reference = ? AND kind = ?", ref, model.PaymentKindPayment).
		Order("id desc").
		First(&t).Error
	if err != nil {
		return 0, notFound(err)
	}
	return t.OrderID, nil
}
