package model

import "time"

type OrderItem struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID               int64     `gorm:"not null;index" json:"order_id"`
	ProductID             int64     `gorm:"not null;index" json:"product_id"`
	ProductNameEnSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_en_snapshot"`
	ProductNameSvSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_sv_snapshot"`
	UnitPriceSnapshot     int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity              int64     `gorm:"not null" json:"quantity"`
	CreatedAt             time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) LineTotal() int64 {
	return it.UnitPriceSnapshot * it.Quantity
}

// 注文合計は明細スナップショットの合計
func SumOrderItems(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
