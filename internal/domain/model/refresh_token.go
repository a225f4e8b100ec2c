package model

import "time"

type RefreshToken struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	UserID    int64      `gorm:"not null;index"`
	TokenHash string     `gorm:"not null;uniqueIndex"`
	UserAgent string     `gorm:"type:varchar(255)"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"index"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime"`
}
