// Package scheduler runs maintenance jobs at fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vytor/skillforge/internal/logger"
)

var (
	ErrNilJob           = errors.New("scheduler: nil job")
	ErrInvalidInterval  = errors.New("scheduler: interval must be positive")
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")
	ErrAlreadyRunning   = errors.New("scheduler: already running")
)

// Job is one periodic task. Run receives a context cancelled on Stop.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

type scheduledJob struct {
	job      Job
	interval time.Duration
}

// Scheduler runs each registered job on its own ticker. A job never overlaps
// with itself: a tick that arrives while the previous run is still going is
// dropped.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []scheduledJob
	names   map[string]bool
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{names: make(map[string]bool)}
}

// Register adds job to run every interval once Start is called.
func (s *Scheduler) Register(job Job, interval time.Duration) error {
	if job == nil {
		return ErrNilJob
	}
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	if s.names[job.Name()] {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, job.Name())
	}
	s.names[job.Name()] = true
	s.jobs = append(s.jobs, scheduledJob{job: job, interval: interval})
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	log := logger.FromContext(ctx).WithPrefix("scheduler")
	for _, sj := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, log, sj)
		log.Info("job registered: name=%s, every=%s", sj.job.Name(), sj.interval)
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, log *logger.Logger, sj scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, log, sj.job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *logger.Logger, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked: name=%s, panic=%v", job.Name(), r)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("job failed: name=%s, duration=%v, error=%v", job.Name(), time.Since(start), err)
		return
	}
	log.Debug("job completed: name=%s, duration=%v", job.Name(), time.Since(start))
}

// Stop cancels running jobs and waits for them to return. Safe to call more
// than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}
