package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"meme-radar/internal/tracker/monitor"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

var errJobPanicked = errors.New("job panicked")

// JobFunc 作业函数，ctx 在 Stop 或单次超时后取消
type JobFunc func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration // 0 表示只运行一次
	fn       JobFunc
}

// Scheduler 按注册顺序启动作业，每个作业一个 goroutine
type Scheduler struct {
	mu      sync.Mutex
	entries []entry
	cancel  context.CancelFunc // 非 nil 表示运行中
	wg      *conc.WaitGroup
	logger  *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger.With(zap.String("component", "scheduler"))}
}

// RegisterJob 注册周期作业，启动时先执行一次；同名作业会被替换
func (s *Scheduler) RegisterJob(name string, interval time.Duration, fn JobFunc) {
	if interval <= 0 {
		s.logger.Warn("non-positive interval, job will run once", zap.String("job", name))
		interval = 0
	}
	s.register(entry{name: name, interval: interval, fn: fn})
}

// RegisterOnceJob 注册启动时只运行一次的作业
func (s *Scheduler) RegisterOnceJob(name string, fn JobFunc) {
	s.register(entry{name: name, fn: fn})
}

func (s *Scheduler) register(e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.logger.Warn("scheduler already running, job takes effect after restart", zap.String("job", e.name))
	}
	for i := range s.entries {
		if s.entries[i].name == e.name {
			s.entries[i] = e
			return
		}
	}
	s.entries = append(s.entries, e)
	s.logger.Info("job registered", zap.String("job", e.name), zap.Duration("interval", e.interval))
}

// Start 重复调用无效果
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg = &conc.WaitGroup{}
	for _, e := range s.entries {
		s.wg.Go(func() { s.loop(runCtx, e) })
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop 取消所有作业并等待退出，ctx 到期后不再等待
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel, wg := s.cancel, s.wg
	s.cancel, s.wg = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("jobs still running after stop deadline", zap.Error(ctx.Err()))
	}
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	s.run(ctx, e)
	if e.interval == 0 {
		return
	}
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("job loop exited", zap.String("job", e.name))
			return
		case <-ticker.C:
			s.run(ctx, e)
		}
	}
}

// run 周期作业单次超时为间隔的一半，panic 记为失败
func (s *Scheduler) run(ctx context.Context, e entry) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.interval > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.interval/2)
	}
	defer cancel()

	started := time.Now()
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = e.fn(runCtx) })
	if r := pc.Recovered(); r != nil {
		s.logger.Error("job panicked", zap.String("job", e.name), zap.Any("panic", r.Value), zap.String("stack", string(r.Stack)))
		err = errJobPanicked
	}
	elapsed := time.Since(started)
	monitor.JobDuration.WithLabelValues(e.name).Observe(elapsed.Seconds())

	switch {
	case err == nil:
		monitor.JobRuns.WithLabelValues(e.name, "ok").Inc()
		s.logger.Debug("job finished", zap.String("job", e.name), zap.Duration("duration", elapsed))
	case ctx.Err() != nil:
		monitor.JobRuns.WithLabelValues(e.name, "canceled").Inc()
		s.logger.Info("job canceled", zap.String("job", e.name), zap.Error(err))
	default:
		monitor.JobRuns.WithLabelValues(e.name, "error").Inc()
		s.logger.Error("job failed", zap.String("job", e.name), zap.Duration("duration", elapsed), zap.Error(err))
	}
}
