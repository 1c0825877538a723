package writer

import (
	"context"
	"errors"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/gearhub-backend/pkg/gcp"
)

// do runs fn with exponential backoff from InitialBackoff, capped at
// MaximumBackoff, for at most MaxAttempts calls. Only errors BigQuery reports
// as transient are retried.
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(p.MaxAttempts-1),
		retry.WithCappedDuration(p.MaximumBackoff, retry.NewExponential(p.InitialBackoff)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// retryable unwraps the per-row error lists BigQuery returns for streaming
// inserts: a batch is retried only if every row failed transiently.
func retryable(err error) bool {
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return allRetryable(multi)
	}
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		if len(put) == 0 {
			return false
		}
		for _, row := range put {
			if !allRetryable(row.Errors) {
				return false
			}
		}
		return true
	}
	return gcp.IsRetryable(err)
}

func allRetryable(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if !retryable(e) {
			return false
		}
	}
	return true
}
