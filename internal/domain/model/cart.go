package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusMerged     CartStatus = "MERGED"
	CartStatusAbandoned  CartStatus = "ABANDONED"
)

// 所有者はUserIDかGuestTokenのどちらか。所有者ごとにACTIVEは1つ（部分ユニークインデックス）
type Cart struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64     `gorm:"uniqueIndex:idx_carts_active_user,where:status = 'ACTIVE'" json:"user_id"`
	GuestToken string     `gorm:"type:varchar(64);uniqueIndex:idx_carts_active_guest,where:status = 'ACTIVE' AND guest_token <> ''" json:"-"`
	Status     CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// カートの所有者。ログイン中はUserID、ゲストはGuestToken
type CartOwner struct {
	UserID     int64
	GuestToken string
}

func (o CartOwner) IsGuest() bool {
	return o.UserID <= 0
}

func (o CartOwner) Valid() bool {
	return o.UserID > 0 || o.GuestToken != ""
}
