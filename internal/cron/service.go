package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/metrics"
)

const (
	defaultInterval   = 24 * time.Hour
	defaultJobTimeout = 10 * time.Minute
)

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service sweeps the registered jobs once per interval while holding Lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

// Report is the outcome of one job inside a cycle.
type Report struct {
	Job      string
	Rows     int64
	Duration time.Duration
	Err      error
}

// ErrLockHeld is returned by RunOnce when another replica owns the cycle.
var ErrLockHeld = errors.New("cron lock held by another instance")

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// Run sweeps immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrLockHeld) {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs the named jobs, or all of them, under the lock. A failing job
// does not stop the ones after it; the joined job errors are returned.
func (s *Service) RunOnce(ctx context.Context, names ...string) ([]Report, error) {
	jobs, err := s.registry.Select(names...)
	if err != nil {
		return nil, err
	}

	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !held {
		s.logg.Info(ctx, "cron cycle skipped, lock held elsewhere")
		return nil, ErrLockHeld
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	reports := make([]Report, 0, len(jobs))
	var errs []error
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		report := s.runJob(ctx, job)
		reports = append(reports, report)
		if report.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", report.Job, report.Err))
		}
	}
	return reports, errors.Join(errs...)
}

func (s *Service) runJob(ctx context.Context, job Job) Report {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	jobCtx = s.logg.WithField(jobCtx, "job", job.Name())

	start := s.now()
	rows, err := job.Run(jobCtx)
	report := Report{Job: job.Name(), Rows: rows, Duration: s.now().Sub(start), Err: err}

	s.metrics.ObserveRun(report.Job, report.Duration, report.Rows, err == nil)
	logCtx := s.logg.WithFields(jobCtx, map[string]any{
		"duration_ms": report.Duration.Milliseconds(),
		"rows":        report.Rows,
	})
	if err != nil {
		s.logg.Error(logCtx, "cron job failed", err)
	} else {
		s.logg.Info(logCtx, "cron job finished")
	}
	return report
}
