package main

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

func (o outcome) String() string {
	switch o {
	case outcomePublished:
		return "published"
	case outcomeRetry:
		return "retry"
	default:
		return "dead_letter"
	}
}

type verdict struct {
	kind   outcome
	reason enums.OutboxDLQErrorReason
	err    error
}

// judge decides what happens to a row after its attempt-th publish try.
// Rows the registry rejects, or that the publisher marks non-retryable, go
// straight to the DLQ; transient failures retry until maxAttempts.
func judge(attempt, maxAttempts int, err error) verdict {
	if err == nil {
		return verdict{kind: outcomePublished}
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return verdict{kind: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}
	if attempt >= maxAttempts {
		return verdict{
			kind:   outcomeDeadLetter,
			reason: enums.OutboxDLQReasonMaxAttempts,
			err:    fmt.Errorf("gave up after %d attempts: %w", attempt, err),
		}
	}
	return verdict{kind: outcomeRetry, err: err}
}
