package model

import "time"

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusPaid          OrderStatus = "PAID"
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
	OrderStatusShipped       OrderStatus = "SHIPPED"
	OrderStatusCanceled      OrderStatus = "CANCELED"
	OrderStatusRefunded      OrderStatus = "REFUNDED"
)

// 許可された遷移
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCanceled},
	OrderStatusPaymentFailed: {OrderStatusPaid, OrderStatusPending, OrderStatusCanceled},
	OrderStatusPaid:          {OrderStatusShipped, OrderStatusRefunded, OrderStatusCanceled},
	OrderStatusShipped:       {OrderStatusRefunded},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	switch st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPaymentFailed,
		OrderStatusShipped, OrderStatusCanceled, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

// 同じステータスへの遷移はfalse（呼び出し側でno-op扱い）
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 在庫を戻すステータス
func (s OrderStatus) Restocks() bool {
	return s == OrderStatusCanceled || s == OrderStatusRefunded
}

// 決済リトライできるか
func (s OrderStatus) Payable() bool {
	return s == OrderStatusPending || s == OrderStatusPaymentFailed
}

// 注文はチェックアウト時点のスナップショット。UserIDがnilならゲスト注文（GuestTokenで持ち主を判定）
type Order struct {
	ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           *int64      `gorm:"index" json:"user_id"`
	GuestToken       string      `gorm:"type:varchar(64);index" json:"-"`
	PublicToken      string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"public_token"`
	Email            string      `gorm:"type:varchar(255);not null" json:"email"`
	CustomerName     string      `gorm:"type:varchar(255);not null" json:"customer_name"`
	Phone            string      `gorm:"type:varchar(30)" json:"phone"`
	Line1            string      `gorm:"type:varchar(255);not null" json:"line1"`
	Line2            string      `gorm:"type:varchar(255)" json:"line2"`
	PostalCode       string      `gorm:"type:varchar(20);not null" json:"postal_code"`
	City             string      `gorm:"type:varchar(255);not null" json:"city"`
	Country          string      `gorm:"type:varchar(2);not null" json:"country"`
	Status           OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice       int64       `gorm:"not null" json:"total_price"`
	Currency         string      `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentGatewayID *int64      `json:"payment_gateway_id"`
	PaymentReference string      `gorm:"type:varchar(255);index" json:"payment_reference"`
	IdempotencyKey   string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt        time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文した本人か（ゲストは注文時のカートトークンで照合）
func (o Order) PlacedBy(owner CartOwner) bool {
	if owner.IsGuest() {
		return o.UserID == nil && owner.GuestToken != "" && o.GuestToken == owner.GuestToken
	}
	return o.UserID != nil && *o.UserID == owner.UserID
}
