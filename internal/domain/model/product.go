package model

import "time"

// 価格は持たない（price-on-request）。
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NameUz      string    `gorm:"type:varchar(255);not null;index" json:"name_uz"`
	NameRu      string    `gorm:"type:varchar(255)" json:"name_ru"`
	CategoryID  int64     `gorm:"not null;index" json:"category_id"`
	SupplierID  int64     `gorm:"not null;index" json:"supplier_id"`
	ImageURL    string    `gorm:"type:varchar(512)" json:"image_url"`
	Description string    `gorm:"type:text" json:"description"`
	Status      bool      `gorm:"not null;default:true;index" json:"status"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
