package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/domain/model"
	"app/internal/infra/storage"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// Runner は1件のジョブをWorkerコンテキストで実行する。
// 例外はこの境界で必ず握りつぶしてFAILEDに変換する（ワーカーを落とさない）。
type Runner struct {
	jobRepo   repo.JobRepository
	orderRepo repo.OrderRepository
	tx        repo.TransactionManager
	store     storage.Storage
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

func NewRunner(
	jobRepo repo.JobRepository,
	orderRepo repo.OrderRepository,
	tx repo.TransactionManager,
	store storage.Storage,
	logger *zap.Logger,
	loc *time.Location,
) *Runner {
	return &Runner{
		jobRepo:   jobRepo,
		orderRepo: orderRepo,
		tx:        tx,
		store:     store,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

func (r *Runner) Run(ctx context.Context, jobID string) {
	// PENDING以外（実行済み・二重投入）は黙って捨てる
	if err := r.jobRepo.MarkRunning(ctx, jobID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			r.logger.Debug("job not runnable, skipping", zap.String("job_id", jobID))
			return
		}
		r.logger.Error("mark running failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.markFailed(ctx, jobID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	job, err := r.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		r.markFailed(ctx, jobID, fmt.Sprintf("load job: %v", err))
		return
	}

	var runErr error
	var resultURL string

	switch job.Type {
	case model.JobTypeExportOrders:
		resultURL, runErr = r.runExport(ctx, job)
	case model.JobTypeImportProducts:
		resultURL, runErr = r.runImport(ctx, job)
	default:
		runErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if runErr != nil {
		r.markFailed(ctx, jobID, runErr.Error())
		return
	}

	if err := r.jobRepo.MarkSuccess(ctx, jobID, resultURL, r.now()); err != nil {
		r.logger.Error("mark success failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	r.logger.Info("job finished", zap.String("job_id", jobID), zap.String("type", string(job.Type)))
}

func (r *Runner) markFailed(ctx context.Context, jobID string, msg string) {
	r.logger.Error("job failed", zap.String("job_id", jobID), zap.String("error", msg))
	if err := r.jobRepo.MarkFailed(ctx, jobID, msg, r.now()); err != nil {
		r.logger.Error("mark failed failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
