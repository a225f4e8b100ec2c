package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type JobGormRepository struct {
	db *gorm.DB
}

// DI
func NewJobGormRepository(db *gorm.DB) *JobGormRepository {
	return &JobGormRepository{db: db}
}

func (r *JobGormRepository) Create(ctx context.Context, job model.AsyncJob) error {
	return r.db.WithContext(ctx).Create(&job).Error
}

func (r *JobGormRepository) FindByID(ctx context.Context, id string) (model.AsyncJob, error) {
	var job model.AsyncJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AsyncJob{}, repo.ErrNotFound
	}
	if err != nil {
		return model.AsyncJob{}, err
	}
	return job, nil
}

// PENDINGのものだけRUNNINGへ。終端からは動かさない。
func (r *JobGormRepository) MarkRunning(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.AsyncJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusPending).
		Update("status", model.JobStatusRunning)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *JobGormRepository) MarkSuccess(ctx context.Context, id string, resultURL string, finishedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.AsyncJob{}).
		Where("id = ? AND status IN ?", id, []model.JobStatus{model.JobStatusPending, model.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":      model.JobStatusSuccess,
			"result_url":  resultURL,
			"finished_at": finishedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *JobGormRepository) MarkFailed(ctx context.Context, id string, errMsg string, finishedAt time.Time) error {
	errMsg = model.TruncateJobError(errMsg)

	res := r.db.WithContext(ctx).Model(&model.AsyncJob{}).
		Where("id = ? AND status IN ?", id, []model.JobStatus{model.JobStatusPending, model.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":      model.JobStatusFailed,
			"error":       errMsg,
			"finished_at": finishedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 起動時の積み残し回収用
func (r *JobGormRepository) ListPending(ctx context.Context) ([]model.AsyncJob, error) {
	var jobs []model.AsyncJob
	err := r.db.WithContext(ctx).
		Where("status = ?", model.JobStatusPending).
		Order("created_at asc").
		Find(&jobs).Error
	if err != nil {
		return []model.AsyncJob{}, err
	}
	return jobs, nil
}
