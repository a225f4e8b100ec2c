package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// mark系は一方向遷移のみ。終端からは動かさない。
type JobRepository interface {
	Create(ctx context.Context, job model.AsyncJob) error
	FindByID(ctx context.Context, id string) (model.AsyncJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id string, resultURL string, finishedAt time.Time) error
	// errMsgはJobErrorMaxLenで切り詰めて保存する
	MarkFailed(ctx context.Context, id string, errMsg string, finishedAt time.Time) error

	// 起動時の積み残し回収用
	ListPending(ctx context.Context) ([]model.AsyncJob, error)
}
