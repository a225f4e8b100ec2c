package repository

import (
	"context"
	"time"
)

// 注文番号の採番。日付行をFOR UPDATEでロックしてカウンタを進める。
// 注文作成と同じトランザクション内で呼ぶこと。
type SequenceRepository interface {
	NextForDate(ctx context.Context, date time.Time) (int, error)
}
