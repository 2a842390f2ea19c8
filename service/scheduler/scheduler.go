package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrTaskScheduled = errors.New("task already scheduled")
	ErrBadPeriod     = errors.New("period must be positive")
	ErrStopped       = errors.New("scheduler already stopped")
)

// Task is a unit of periodic work. Run must contain its own error
// handling; the scheduler only provides the heartbeat and cancellation.
type Task interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler runs tasks on fixed periods. One instance owns its tasks; no
// process-wide state. At most one schedule per task name. CancelAll stops
// future ticks and waits for any in-flight run to finish.
type Scheduler struct {
	log *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:     log,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Schedule starts ticking the task every period. The first run happens
// after one full period, not immediately.
func (s *Scheduler) Schedule(task Task, period time.Duration) error {
	if period <= 0 {
		return ErrBadPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.cancels[task.Name()]; ok {
		return ErrTaskScheduled
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[task.Name()] = cancel

	s.wg.Add(1)
	go s.loop(ctx, task, period)

	s.log.Info("task scheduled", "task", task.Name(), "period", period)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, task Task, period time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("task loop stopped", "task", task.Name())
			return
		case <-ticker.C:
			task.Run(ctx)
		}
	}
}

// CancelAll stops all scheduled tasks and blocks until in-flight runs
// return. Safe to call once during shutdown; later Schedule calls fail.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.stopped = true
	for name, cancel := range s.cancels {
		cancel()
		delete(s.cancels, name)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("all scheduled tasks stopped")
}
