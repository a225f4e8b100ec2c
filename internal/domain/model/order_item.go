package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点のスナップショット。後からカートや商品を変えても影響しない。
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
