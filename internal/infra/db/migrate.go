package db

import (
	"datesshop/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrateで全テーブルを作る
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.User{},
		&model.Lookup{},
		&model.Product{},
		&model.InventoryAdjustment{},
		&model.Date{},
		&model.DatesCollection{},
		&model.Gallery{},
		&model.Section{},
		&model.Faq{},
		&model.ContactMessage{},
		&model.EmailSubscription{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentGateway{},
		&model.PaymentTransaction{},
		&model.AuditLog{},
	)
}

// 注文ステータスの表示ラベル
var orderStatusLookups = []model.Lookup{
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusPending), NameEn: "Pending", NameSv: "Väntande", SortOrder: 1},
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusPaid), NameEn: "Paid", NameSv: "Betald", SortOrder: 2},
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusPaymentFailed), NameEn: "Payment failed", NameSv: "Betalning misslyckades", SortOrder: 3},
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusShipped), NameEn: "Shipped", NameSv: "Skickad", SortOrder: 4},
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusCanceled), NameEn: "Canceled", NameSv: "Avbruten", SortOrder: 5},
	{Kind: model.LookupKindOrderStatus, Code: string(model.OrderStatusRefunded), NameEn: "Refunded", NameSv: "Återbetald", SortOrder: 6},
}

// 起動時の初期データ。既にあれば何もしない
func Seed(gdb *gorm.DB, gatewayCode string) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, l := range orderStatusLookups {
			l := l
			l.IsActive = true
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&l).Error; err != nil {
				return err
			}
		}

		gw := model.PaymentGateway{Code: gatewayCode, Name: gatewayCode, IsActive: true}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&gw).Error
	})
}
