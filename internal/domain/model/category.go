package model

import "time"

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NameUz    string    `gorm:"type:varchar(255);not null" json:"name_uz"`
	NameRu    string    `gorm:"type:varchar(255);not null" json:"name_ru"`
	SortOrder int       `gorm:"not null;default:0" json:"order"`
	Status    bool      `gorm:"not null;default:true" json:"status"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
