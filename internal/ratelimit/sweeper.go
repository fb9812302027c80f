package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// SweepObserver 在每次清理完成后被调用
type SweepObserver func(stats SweepStats)

// Sweeper 周期性地回收不活跃客户端
type Sweeper struct {
	limiter  Limiter
	interval time.Duration
	clock    Clock
	logger   *logr.Logger
	observer SweepObserver

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSweeper 创建新的清理器实例，interval 不大于 0 时使用一秒
func NewSweeper(limiter Limiter, interval time.Duration, clock Clock, logger *logr.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	return &Sweeper{
		limiter:  limiter,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// SetObserver 设置清理完成后的回调，必须在 Start 之前调用
func (s *Sweeper) SetObserver(observer SweepObserver) {
	s.observer = observer
}

// Start 启动后台清理协程，重复调用无效果
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Rate limit sweeper started", "interval", s.interval.String())
}

// Stop 停止后台清理协程并等待其退出
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Rate limit sweeper stopped")
}

// IsRunning 检查清理器是否在运行
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce 立即执行一次清理
func (s *Sweeper) RunOnce() SweepStats {
	stats := s.limiter.Sweep(s.clock())

	if stats.Expired > 0 || stats.Evicted > 0 {
		s.logger.V(2).Info("Rate limit sweep completed",
			"expired", stats.Expired,
			"evicted", stats.Evicted,
			"remaining", stats.Remaining)
	}
	if stats.Evicted > 0 {
		s.logger.Info("Rate limit capacity reached, evicted inactive clients", "evicted", stats.Evicted)
	}

	if s.observer != nil {
		s.observer(stats)
	}
	return stats
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}
