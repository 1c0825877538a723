package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/gearhub-backend/api/validators"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

const (
	day      = 24 * time.Hour
	maxRange = 366 * day
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// presets resolve to [start, now). Rolling ones look back a fixed duration,
// calendar ones start at a UTC day, month or year boundary.
var presets = map[string]func(now time.Time) time.Time{
	"7d":    func(now time.Time) time.Time { return now.Add(-7 * day) },
	"30d":   func(now time.Time) time.Time { return now.Add(-30 * day) },
	"90d":   func(now time.Time) time.Time { return now.Add(-90 * day) },
	"today": func(now time.Time) time.Time { return now.Truncate(day) },
	"mtd":   func(now time.Time) time.Time { return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC) },
	"ytd":   func(now time.Time) time.Time { return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC) },
}

const defaultPreset = "30d"

type salesRange struct {
	start, end time.Time
}

// resolveSalesRange reads either an explicit from/to pair or a preset.
// A date-only "to" covers the whole day.
func resolveSalesRange(r *http.Request, now time.Time) (salesRange, error) {
	q := r.URL.Query()
	rawFrom, rawTo := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

	switch {
	case rawFrom == "" && rawTo == "":
		return presetRange(q.Get("preset"), now)
	case rawFrom == "" || rawTo == "":
		return salesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
	}

	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return salesRange{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return salesRange{}, err
	}
	rng := salesRange{start: *from, end: *to}
	if len(rawTo) == len(time.DateOnly) {
		rng.end = rng.end.Add(day)
	}
	return rng, rng.check()
}

func presetRange(raw string, now time.Time) (salesRange, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		name = defaultPreset
	}
	startOf, ok := presets[name]
	if !ok {
		return salesRange{}, pkgerrors.FieldError("preset", "preset must be one of 7d, 30d, 90d, today, mtd, ytd")
	}
	return salesRange{start: startOf(now), end: now}, nil
}

func (s salesRange) check() error {
	if !s.end.After(s.start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	if s.end.Sub(s.start) > maxRange {
		return pkgerrors.New(pkgerrors.CodeValidation, "range must not exceed one year")
	}
	return nil
}
