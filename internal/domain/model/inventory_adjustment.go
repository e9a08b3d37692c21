package model

import "time"

// 管理者による在庫の付け替え。Deltaはafter-before
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index:idx_adjustment_product_created,priority:1" json:"product_id"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	StockBefore int64     `gorm:"not null" json:"stock_before"`
	StockAfter  int64     `gorm:"not null" json:"stock_after"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index:idx_adjustment_product_created,priority:2" json:"created_at"`
}
