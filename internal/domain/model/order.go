package model

import "time"

type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "Received"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusShipped   OrderStatus = "Shipped"
)

// ステータス遷移は前進のみ。Shippedが終端。
var orderStatusNext = map[OrderStatus][]OrderStatus{
	OrderStatusReceived:  {OrderStatusConfirmed},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {},
}

// enumメンバーかどうか
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNext[s]
	return ok
}

// 現在のステータスからnextへ進めるか
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderStatusNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// 作成後はstatusとupdated_at以外は不変
type Order struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64       `gorm:"not null;index" json:"user_id"`
	OrderNumber string      `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'Received';index" json:"status"`
	CreatedAt   time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
