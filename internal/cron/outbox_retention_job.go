package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	outboxMinAttempts   = 10
)

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	Events      outboxEventPruner
	DeadLetters deadLetterPruner
	Retention   int
	MinAttempts int
}

type outboxEventPruner interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time, minAttempts int) (int64, error)
}

type deadLetterPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob prunes published events, events that exhausted their
// attempts, and dead letters older than the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		events:      params.Events,
		deadLetters: params.DeadLetters,
		retention:   params.Retention,
		minAttempts: params.MinAttempts,
		now:         time.Now,
	}
	if job.retention <= 0 {
		job.retention = outboxRetentionDays
	}
	if job.minAttempts <= 0 {
		job.minAttempts = outboxMinAttempts
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	events      outboxEventPruner
	deadLetters deadLetterPruner
	retention   int
	minAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := retentionCutoff(j.now(), j.retention)

	events, err := j.events.DeletePublishedBefore(ctx, cutoff, j.minAttempts)
	if err != nil {
		return 0, fmt.Errorf("prune outbox events: %w", err)
	}
	var letters int64
	if j.deadLetters != nil {
		if letters, err = j.deadLetters.PruneBefore(ctx, cutoff); err != nil {
			return events, fmt.Errorf("prune dead letters: %w", err)
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"events_deleted": events,
		"dlq_deleted":    letters,
	}), "outbox retention swept")
	return events + letters, nil
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}
