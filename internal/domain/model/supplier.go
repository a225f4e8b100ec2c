package model

import "time"

type Supplier struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	Status    bool      `gorm:"not null;default:true" json:"status"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
