package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// ワーカーへの投入口。falseはキュー満杯。
type JobQueue interface {
	Enqueue(jobID string) bool
}

// 取り込みファイルとして受け付けるContent-Type
var allowedImportContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream":                                          true,
}

type JobUsecase struct {
	jobRepo     repo.JobRepository
	queue       JobQueue
	spoolDir    string
	maxImportMB int
}

func NewJobUsecase(jobRepo repo.JobRepository, queue JobQueue, spoolDir string, maxImportMB int) *JobUsecase {
	return &JobUsecase{
		jobRepo:     jobRepo,
		queue:       queue,
		spoolDir:    spoolDir,
		maxImportMB: maxImportMB,
	}
}

type JobResponse struct {
	ID         string          `json:"id"`
	Type       model.JobType   `json:"type"`
	Status     model.JobStatus `json:"status"`
	ResultURL  string          `json:"result_url,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at"`
}

// エクスポートの絞り込み。InputParamsにJSONで保存される。
type ExportOrdersParams struct {
	Status string `json:"status,omitempty"`
	UserID *int64 `json:"user_id,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// 取り込みジョブのパラメータ。ファイルはスプールに置いてパスだけ持つ。
type ImportProductsParams struct {
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
}

func (u *JobUsecase) EnqueueExport(ctx context.Context, params ExportOrdersParams) (JobResponse, error) {
	if params.Status != "" && !model.OrderStatus(params.Status).Valid() {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if err := validateDateParam(params.From); err != nil {
		return JobResponse{}, err
	}
	if err := validateDateParam(params.To); err != nil {
		return JobResponse{}, err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return u.enqueue(ctx, model.JobTypeExportOrders, string(raw))
}

func (u *JobUsecase) EnqueueImport(ctx context.Context, filename string, contentType string, data []byte) (JobResponse, error) {
	if len(data) == 0 {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest, "file is empty")
	}
	if len(data) > u.maxImportMB*1024*1024 {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("file exceeds %dMB limit", u.maxImportMB))
	}
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest, "only .xlsx files are accepted")
	}
	// multipartのContent-Typeはブラウザ依存なのでoctet-streamも通す
	if contentType != "" && !allowedImportContentTypes[strings.ToLower(contentType)] {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest, "unsupported content type")
	}

	if err := os.MkdirAll(u.spoolDir, 0o755); err != nil {
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	spoolPath := filepath.Join(u.spoolDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename)))
	if err := os.WriteFile(spoolPath, data, 0o644); err != nil {
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	raw, err := json.Marshal(ImportProductsParams{FilePath: spoolPath, Filename: filepath.Base(filename)})
	if err != nil {
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return u.enqueue(ctx, model.JobTypeImportProducts, string(raw))
}

func (u *JobUsecase) GetStatus(ctx context.Context, jobID string) (JobResponse, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return JobResponse{}, NewHTTPError(http.StatusBadRequest, "invalid job id")
	}

	job, err := u.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if err == repo.ErrNotFound {
			return JobResponse{}, NewHTTPError(http.StatusNotFound, "job not found")
		}
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toJobResponse(job), nil
}

// PENDINGで保存してからキューへ。キューが詰まっていてもPENDINGのまま残り、
// 再起動時の積み残し回収で拾われる。
func (u *JobUsecase) enqueue(ctx context.Context, jobType model.JobType, inputParams string) (JobResponse, error) {
	job := model.AsyncJob{
		ID:          uuid.NewString(),
		Type:        jobType,
		Status:      model.JobStatusPending,
		InputParams: inputParams,
	}
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return JobResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.queue.Enqueue(job.ID)

	created, err := u.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return toJobResponse(job), nil
	}
	return toJobResponse(created), nil
}

func toJobResponse(j model.AsyncJob) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		ResultURL:  j.ResultURL,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt,
	}
}

// YYYY-MM-DDのみ受ける
func validateDateParam(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return nil
}
