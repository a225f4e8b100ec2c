package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceGormRepository struct {
	db *gorm.DB
}

func NewSequenceGormRepository(db *gorm.DB) *SequenceGormRepository {
	return &SequenceGormRepository{db: db}
}

// 日付行をFOR UPDATEでロックしてカウンタを進める。
// 行ロックなので別日付どうしは競合しない。注文作成のトランザクション内で呼ばれる想定。
func (r *SequenceGormRepository) NextForDate(ctx context.Context, date time.Time) (int, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var seq model.OrderNumberSequence

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ?", day).
		First(&seq).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// その日の最初の注文。トランザクション内なので一意制約違反を踏むと
		// 以降のSQLが全部失敗する。作成はON CONFLICTで握りつぶし、
		// どちらが勝っても同じ行をロックして読み直す。
		seed := model.OrderNumberSequence{Date: day, LastCounter: 0}
		if createErr := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}},
				DoNothing: true,
			}).
			Create(&seed).Error; createErr != nil {
			return 0, createErr
		}

		if retryErr := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("date = ?", day).
			First(&seq).Error; retryErr != nil {
			return 0, retryErr
		}
	} else if err != nil {
		return 0, err
	}

	next := seq.LastCounter + 1

	res := r.db.WithContext(ctx).Model(&model.OrderNumberSequence{}).
		Where("id = ?", seq.ID).
		Update("last_counter", next)
	if res.Error != nil {
		return 0, res.Error
	}

	return next, nil
}
