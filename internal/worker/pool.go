package worker

import (
	"context"
	"sync"

	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 1件のジョブを実行する約束。実体はjob.Runner。
type JobRunner interface {
	Run(ctx context.Context, jobID string)
}

// Pool はリクエスト処理から切り離されたワーカー群。
// ハンドラはEnqueueするだけで即応答し、実行はここで行う。
type Pool struct {
	queue   chan string
	runner  JobRunner
	jobRepo repo.JobRepository
	logger  *zap.Logger
	workers int
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewPool(runner JobRunner, jobRepo repo.JobRepository, workers int, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers * 16
	}
	return &Pool{
		queue:   make(chan string, queueSize),
		runner:  runner,
		jobRepo: jobRepo,
		logger:  logger,
		workers: workers,
	}
}

// Start はワーカーを起動し、前回プロセスの積み残し（PENDINGのまま残ったジョブ）を拾い直す。
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	pending, err := p.jobRepo.ListPending(ctx)
	if err != nil {
		p.logger.Error("list pending jobs failed", zap.Error(err))
		return
	}
	for _, j := range pending {
		if !p.Enqueue(j.ID) {
			p.logger.Warn("queue full, pending job left for next restart", zap.String("job_id", j.ID))
		}
	}
	if len(pending) > 0 {
		p.logger.Info("re-enqueued pending jobs", zap.Int("count", len(pending)))
	}
}

// Enqueue は非ブロッキング。満杯か停止後はfalseを返し、ジョブはPENDINGのまま残る。
func (p *Pool) Enqueue(jobID string) bool {
	// closeされたチャネルへのsendはpanicするので、締め切りとsendを同じロックで守る
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- jobID:
		return true
	default:
		return false
	}
}

// Stop は受付を締めて実行中のジョブが終わるまで待つ
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for jobID := range p.queue {
		p.logger.Info("worker picked job", zap.Int("worker", id), zap.String("job_id", jobID))
		p.runner.Run(ctx, jobID)
	}
}
