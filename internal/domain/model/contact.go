package model

import "time"

// お問い合わせ
type ContactMessage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// ニュースレター購読
type EmailSubscription struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	UnsubscribeToken string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	IsActive         bool       `gorm:"not null;index" json:"is_active"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
