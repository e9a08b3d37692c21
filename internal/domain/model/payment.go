package model

import "time"

// 決済プロバイダ
type PaymentGateway struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type PaymentTransactionKind string

const (
	PaymentKindPayment PaymentTransactionKind = "PAYMENT"
	PaymentKindRefund  PaymentTransactionKind = "REFUND"
)

// プロバイダから返ってきた結果の記録
type PaymentTransaction struct {
	ID                int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64                  `gorm:"not null;index" json:"order_id"`
	PaymentGatewayID  int64                  `gorm:"not null;index" json:"payment_gateway_id"`
	Kind              PaymentTransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	ExternalReference string                 `gorm:"type:varchar(255);not null;index" json:"external_reference"`
	Amount            int64                  `gorm:"not null" json:"amount"`
	Currency          string                 `gorm:"type:varchar(3);not null" json:"currency"`
	Status            string                 `gorm:"type:varchar(50);not null" json:"status"`
	CreatedAt         time.Time              `gorm:"not null;autoCreateTime" json:"created_at"`
}
