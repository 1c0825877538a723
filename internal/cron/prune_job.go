package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

const (
	notificationRetentionDays = 30
	abandonedCartDays         = 30
)

// pruneFunc deletes rows older than cutoff and reports how many went.
type pruneFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// pruneJob is the common shape of single-table retention sweeps.
type pruneJob struct {
	name      string
	what      string
	logg      *logger.Logger
	prune     pruneFunc
	retention int
	now       func() time.Time
}

func newPruneJob(name, what string, logg *logger.Logger, prune pruneFunc, retention, fallback int) (*pruneJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if prune == nil {
		return nil, fmt.Errorf("%s: repository required", name)
	}
	if retention <= 0 {
		retention = fallback
	}
	return &pruneJob{name: name, what: what, logg: logg, prune: prune, retention: retention, now: time.Now}, nil
}

func (j *pruneJob) Name() string { return j.name }

func (j *pruneJob) Run(ctx context.Context) (int64, error) {
	cutoff := retentionCutoff(j.now(), j.retention)
	deleted, err := j.prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"deleted": deleted,
	}), j.what+" pruned")
	return deleted, nil
}

// Only read notifications are purged; unread ones stay in the admin inbox.
type readNotificationPruner interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository readNotificationPruner
	Retention  int
}

func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	var prune pruneFunc
	if params.Repository != nil {
		prune = params.Repository.DeleteReadBefore
	}
	return newPruneJob("notification-cleanup", "read notifications", params.Logger, prune, params.Retention, notificationRetentionDays)
}

type abandonedCartPruner interface {
	DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AbandonedCartJobParams struct {
	Logger     *logger.Logger
	Repository abandonedCartPruner
	Retention  int
}

// NewAbandonedCartJob drops guest carts nobody touched within the window.
// Their session tokens expire client side long before that.
func NewAbandonedCartJob(params AbandonedCartJobParams) (Job, error) {
	var prune pruneFunc
	if params.Repository != nil {
		prune = params.Repository.DeleteAbandonedBefore
	}
	return newPruneJob("abandoned-carts", "abandoned guest carts", params.Logger, prune, params.Retention, abandonedCartDays)
}
