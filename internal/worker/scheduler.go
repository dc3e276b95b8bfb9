package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conti/internal/log"
)

// Job is a task run at a fixed interval, once right away and then on every
// tick.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs in the background until stopped. A failing run is
// logged and the job keeps its schedule.
type Scheduler struct {
	jobs   []Job
	logger *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(logger *log.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start launches one loop per job. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			return fmt.Errorf("job %q: interval must be positive", j.Name)
		}
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	var wg sync.WaitGroup
	for _, j := range s.jobs {
		j := j // per-iteration copy; module targets go 1.21 loop semantics
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, j)
		}()
		s.logger.InfoContext(ctx, "Job scheduled", "job", j.Name, "interval", j.Interval)
	}
	go func() {
		wg.Wait()
		close(s.doneCh)
	}()
	return nil
}

// Stop signals every loop and waits for the running jobs to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done is closed once every loop has returned, either after Stop or after
// the Start context ends.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

func (s *Scheduler) runLoop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, j)
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Job failed",
			"job", j.Name,
			log.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Job completed",
		"job", j.Name,
		log.FieldDuration, time.Since(start).Milliseconds())
}
