package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/registry"
)

func TestJudge(t *testing.T) {
	transient := errors.New("unavailable")
	poison := registry.NewNonRetryableError(errors.New("bad envelope"))

	cases := []struct {
		name    string
		attempt int
		err     error
		kind    outcome
		reason  enums.OutboxDLQErrorReason
	}{
		{"ok", 1, nil, outcomePublished, ""},
		{"transient", 1, transient, outcomeRetry, ""},
		{"last attempt", 5, transient, outcomeDeadLetter, enums.OutboxDLQReasonMaxAttempts},
		{"poison first try", 1, poison, outcomeDeadLetter, enums.OutboxDLQReasonNonRetryable},
		{"wrapped poison", 2, fmt.Errorf("publish: %w", poison), outcomeDeadLetter, enums.OutboxDLQReasonNonRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := judge(tc.attempt, 5, tc.err)
			assert.Equal(t, tc.kind, v.kind)
			assert.Equal(t, tc.reason, v.reason)
			if tc.err != nil {
				assert.ErrorIs(t, v.err, tc.err)
			}
		})
	}
}

func TestOutcomeLabels(t *testing.T) {
	assert.Equal(t, "published", outcomePublished.String())
	assert.Equal(t, "retry", outcomeRetry.String())
	assert.Equal(t, "dead_letter", outcomeDeadLetter.String())
}

func TestBackoffDoublesToCap(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 350*time.Millisecond)
	want := []time.Duration{100, 200, 350, 350}
	for _, w := range want {
		got := b.next()
		assert.GreaterOrEqual(t, got, w*time.Millisecond)
		assert.Less(t, got, w*time.Millisecond+jitterWindow)
	}
	b.reset()
	assert.Less(t, b.next(), 100*time.Millisecond+jitterWindow)
}
