package model

import "time"

// デーツの品種
type Date struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NameEn        string    `gorm:"type:varchar(255)" json:"name_en"`
	NameSv        string    `gorm:"type:varchar(255)" json:"name_sv"`
	DescriptionEn string    `gorm:"type:text" json:"description_en"`
	DescriptionSv string    `gorm:"type:text" json:"description_sv"`
	OriginEn      string    `gorm:"type:varchar(255)" json:"origin_en"`
	OriginSv      string    `gorm:"type:varchar(255)" json:"origin_sv"`
	ImagePath     string    `gorm:"type:varchar(500)" json:"image_path"`
	SortOrder     int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type DatesCollection struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TitleEn       string    `gorm:"type:varchar(255)" json:"title_en"`
	TitleSv       string    `gorm:"type:varchar(255)" json:"title_sv"`
	DescriptionEn string    `gorm:"type:text" json:"description_en"`
	DescriptionSv string    `gorm:"type:text" json:"description_sv"`
	ImagePath     string    `gorm:"type:varchar(500)" json:"image_path"`
	SortOrder     int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	Dates         []Date    `gorm:"many2many:dates_collection_dates;constraint:OnDelete:CASCADE" json:"dates"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Gallery struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TitleEn   string    `gorm:"type:varchar(255)" json:"title_en"`
	TitleSv   string    `gorm:"type:varchar(255)" json:"title_sv"`
	ImagePath string    `gorm:"type:varchar(500);not null" json:"image_path"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ページの文言ブロック（keyで引く）
type Section struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"key"`
	TitleEn   string    `gorm:"type:varchar(255)" json:"title_en"`
	TitleSv   string    `gorm:"type:varchar(255)" json:"title_sv"`
	BodyEn    string    `gorm:"type:text" json:"body_en"`
	BodySv    string    `gorm:"type:text" json:"body_sv"`
	ImagePath string    `gorm:"type:varchar(500)" json:"image_path"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Faq struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionEn string    `gorm:"type:text" json:"question_en"`
	QuestionSv string    `gorm:"type:text" json:"question_sv"`
	AnswerEn   string    `gorm:"type:text" json:"answer_en"`
	AnswerSv   string    `gorm:"type:text" json:"answer_sv"`
	SortOrder  int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
