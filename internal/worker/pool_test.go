package worker

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRunner struct {
	mu  sync.Mutex
	ran []string
}

func (r *recordingRunner) Run(ctx context.Context, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, jobID)
}

func (r *recordingRunner) jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ran))
	copy(out, r.ran)
	return out
}

type stubPendingRepo struct {
	pending []model.AsyncJob
}

func (r *stubPendingRepo) Create(ctx context.Context, job model.AsyncJob) error { panic("not used") }
func (r *stubPendingRepo) FindByID(ctx context.Context, id string) (model.AsyncJob, error) {
	panic("not used")
}
func (r *stubPendingRepo) MarkRunning(ctx context.Context, id string) error { panic("not used") }
func (r *stubPendingRepo) MarkSuccess(ctx context.Context, id string, resultURL string, finishedAt time.Time) error {
	panic("not used")
}
func (r *stubPendingRepo) MarkFailed(ctx context.Context, id string, errMsg string, finishedAt time.Time) error {
	panic("not used")
}
func (r *stubPendingRepo) ListPending(ctx context.Context) ([]model.AsyncJob, error) {
	return r.pending, nil
}

var _ repo.JobRepository = (*stubPendingRepo)(nil)

func TestPool_RunsEnqueuedJobs(t *testing.T) {
	runner := &recordingRunner{}
	pool := NewPool(runner, &stubPendingRepo{}, 2, 8, zap.NewNop())
	pool.Start(context.Background())

	require.True(t, pool.Enqueue("job-1"))
	require.True(t, pool.Enqueue("job-2"))
	require.True(t, pool.Enqueue("job-3"))

	// Stopで実行完了まで待つ
	pool.Stop()

	got := runner.jobs()
	sort.Strings(got)
	assert.Equal(t, []string{"job-1", "job-2", "job-3"}, got)
}

func TestPool_StartReenqueuesPendingJobs(t *testing.T) {
	runner := &recordingRunner{}
	jobs := &stubPendingRepo{pending: []model.AsyncJob{
		{ID: "left-1", Status: model.JobStatusPending},
		{ID: "left-2", Status: model.JobStatusPending},
	}}

	pool := NewPool(runner, jobs, 1, 8, zap.NewNop())
	pool.Start(context.Background())
	pool.Stop()

	got := runner.jobs()
	sort.Strings(got)
	assert.Equal(t, []string{"left-1", "left-2"}, got)
}

func TestPool_EnqueueAfterStopReturnsFalse(t *testing.T) {
	runner := &recordingRunner{}
	pool := NewPool(runner, &stubPendingRepo{}, 1, 8, zap.NewNop())
	pool.Start(context.Background())
	pool.Stop()

	// 停止後のEnqueueはpanicせずfalseを返す
	assert.False(t, pool.Enqueue("late"))
	assert.Empty(t, runner.jobs())

	// Stopの二重呼び出しも安全
	pool.Stop()
}

func TestPool_EnqueueNonBlockingWhenFull(t *testing.T) {
	runner := &recordingRunner{}
	// ワーカーを起動しないのでキュー容量分しか受け付けない
	pool := NewPool(runner, &stubPendingRepo{}, 1, 1, zap.NewNop())

	assert.True(t, pool.Enqueue("job-1"))
	assert.False(t, pool.Enqueue("job-2"))
}
