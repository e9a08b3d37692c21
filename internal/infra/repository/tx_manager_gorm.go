package repository

import (
	"context"

	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	carts       repo.CartRepository
	cartItems   repo.CartItemRepository
	inventory   repo.InventoryRepository
	products    repo.ProductRepository
	payments    repo.PaymentTransactionRepository
	auditLogs   repo.AuditLogRepository
	contactMsgs repo.ContactMessageRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Carts() repo.CartRepository           { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) PaymentTransactions() repo.PaymentTransactionRepository {
	return r.payments
}
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository { return r.auditLogs }
func (r *txReposGorm) ContactMessages() repo.ContactMessageRepository {
	return r.contactMsgs
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		carts := NewCartGormRepository(tx)
		r := &txReposGorm{
			orders:      NewOrderGormRepository(tx),
			orderItems:  NewOrderItemGormRepository(tx),
			carts:       carts,
			cartItems:   carts,
			inventory:   NewInventoryGormRepository(tx),
			products:    NewProductGormRepository(tx),
			payments:    NewPaymentTransactionGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
			contactMsgs: NewContactMessageGormRepository(tx),
		}
		return fn(r)
	})
}
