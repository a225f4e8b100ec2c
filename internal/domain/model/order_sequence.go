package model

import (
	"fmt"
	"time"
)

// 日付ごとの採番行。last_counterは行ロックの下でのみ増える。
type OrderNumberSequence struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Date        time.Time `gorm:"type:date;uniqueIndex;not null"`
	LastCounter int       `gorm:"not null;default:0"`
}

// #YYYYMMDD-NNN 形式。999を超えたら桁が広がる（巻き戻さない）。
func FormatOrderNumber(date time.Time, counter int) string {
	return fmt.Sprintf("#%s-%03d", date.Format("20060102"), counter)
}
