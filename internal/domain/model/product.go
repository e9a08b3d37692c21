package model

import (
	"time"

	"gorm.io/gorm"
)

// 金額はすべて最小通貨単位（öre）
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	NameEn        string         `gorm:"type:varchar(255);not null" json:"name_en"`
	NameSv        string         `gorm:"type:varchar(255);not null" json:"name_sv"`
	DescriptionEn string         `gorm:"type:text" json:"description_en"`
	DescriptionSv string         `gorm:"type:text" json:"description_sv"`
	Price         int64          `gorm:"not null" json:"price"`
	Stock         int64          `gorm:"not null" json:"stock"`
	ImagePath     string         `gorm:"type:varchar(500)" json:"image_path"`
	CategoryID    *int64         `gorm:"index" json:"category_id"`
	TypeID        *int64         `gorm:"index" json:"type_id"`
	SizeID        *int64         `gorm:"index" json:"size_id"`
	IsActive      bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// 表示名（Enが空ならSv）
func (p Product) DisplayName() string {
	if p.NameEn != "" {
		return p.NameEn
	}
	return p.NameSv
}
