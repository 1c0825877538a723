// Package ordernumber issues human-readable order references of the form
// <PREFIX><YY><MM><DD><SEQ>, where SEQ is a zero padded per-day sequence.
package ordernumber

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPrefix is used when no prefix is configured.
	DefaultPrefix = "GH"
	// MaxSequence is the last sequence a single day can issue.
	MaxSequence = 9999

	sequenceDigits = 4
	dateLayout     = "060102"
)

var (
	// ErrSequenceExhausted is returned once a day has issued MaxSequence numbers.
	ErrSequenceExhausted = errors.New("order number sequence exhausted for the day")
	// ErrStaleSequenceRace is returned when a freshly allocated number still
	// collides with an existing order after a retry.
	ErrStaleSequenceRace = errors.New("order number collided with a concurrent allocation")
	// ErrMalformed is returned by Parse for strings that are not order numbers.
	ErrMalformed = errors.New("malformed order number")
)

// Number is a parsed order number.
type Number struct {
	Prefix   string
	Date     time.Time
	Sequence int
}

// DayKey returns the shared <PREFIX><YYMMDD> part of the number.
func (n Number) DayKey() string {
	return n.Prefix + n.Date.Format(dateLayout)
}

func (n Number) String() string {
	return Format(n.DayKey(), n.Sequence)
}

// DayKey builds the <PREFIX><YYMMDD> part for t in loc.
func DayKey(prefix string, t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return prefix + t.In(loc).Format(dateLayout)
}

// Format joins a day key and a sequence. It does not check bounds.
func Format(dayKey string, seq int) string {
	return fmt.Sprintf("%s%0*d", dayKey, sequenceDigits, seq)
}

// NextAfter returns the number that follows lastIssued for the given day key.
// An empty lastIssued starts the day at sequence 1.
func NextAfter(dayKey, lastIssued string) (string, error) {
	last := 0
	if lastIssued != "" {
		if !strings.HasPrefix(lastIssued, dayKey) || len(lastIssued) != len(dayKey)+sequenceDigits {
			return "", fmt.Errorf("%w: %q does not belong to %q", ErrMalformed, lastIssued, dayKey)
		}
		seq, err := strconv.Atoi(lastIssued[len(dayKey):])
		if err != nil || seq < 0 {
			return "", fmt.Errorf("%w: %q", ErrMalformed, lastIssued)
		}
		last = seq
	}
	return sequenceToNumber(dayKey, last+1)
}

func sequenceToNumber(dayKey string, seq int) (string, error) {
	if seq > MaxSequence {
		return "", ErrSequenceExhausted
	}
	if seq < 1 {
		return "", fmt.Errorf("%w: sequence %d", ErrMalformed, seq)
	}
	return Format(dayKey, seq), nil
}

// Parse splits raw into prefix, date and sequence. The prefix is whatever
// precedes the trailing ten digits and must be non-empty and non-numeric at its end.
func Parse(raw string) (Number, error) {
	raw = strings.TrimSpace(raw)
	tail := len(dateLayout) + sequenceDigits
	if len(raw) <= tail {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	prefix := raw[:len(raw)-tail]
	digits := raw[len(raw)-tail:]
	if last := prefix[len(prefix)-1]; last >= '0' && last <= '9' {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Number{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
		}
	}
	date, err := time.ParseInLocation(dateLayout, digits[:len(dateLayout)], time.UTC)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	seq, _ := strconv.Atoi(digits[len(dateLayout):])
	if seq < 1 {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return Number{Prefix: prefix, Date: date, Sequence: seq}, nil
}
