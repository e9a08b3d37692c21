package model

import "time"

// 表示ラベル用の参照テーブルの種類
type LookupKind string

const (
	LookupKindCategory    LookupKind = "category"
	LookupKindType        LookupKind = "type"
	LookupKindSize        LookupKind = "size"
	LookupKindOrderStatus LookupKind = "order_status"
)

func (k LookupKind) Valid() bool {
	switch k {
	case LookupKindCategory, LookupKindType, LookupKindSize, LookupKindOrderStatus:
		return true
	}
	return false
}

// (kind, code) で一意
type Lookup struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      LookupKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_lookup_kind_code" json:"kind"`
	Code      string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_lookup_kind_code" json:"code"`
	NameEn    string     `gorm:"type:varchar(255);not null" json:"name_en"`
	NameSv    string     `gorm:"type:varchar(255);not null" json:"name_sv"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool       `gorm:"not null" json:"is_active"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}
