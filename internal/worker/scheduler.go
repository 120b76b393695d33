package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs delayed one-shot tasks such as channel deletions after the
// close grace period. Tasks are fire-and-forget: failures are the task's to log.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewScheduler returns a scheduler whose tasks receive a context derived from parent.
func NewScheduler(parent context.Context, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel, logger: logger}
}

// After runs fn once delay has elapsed. A delay of zero runs fn on its own
// goroutine immediately.
func (s *Scheduler) After(delay time.Duration, name string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-s.ctx.Done():
				// Shutdown runs the pending task right away so closed
				// tickets do not leave channels behind.
			}
		}
		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 30*time.Second)
		defer cancel()
		s.logger.Debug("running scheduled task", zap.String("task", name))
		fn(taskCtx)
	}()
}

// Wait blocks until every scheduled task has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Shutdown fires pending tasks early and waits for them.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
