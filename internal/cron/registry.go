package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one retention task. Run reports how many rows it removed.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Registry keeps jobs in registration order and rejects duplicate names so
// metrics and -job selection stay unambiguous.
type Registry struct {
	order []string
	jobs  map[string]Job
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{jobs: map[string]Job{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := r.jobs[name]; dup {
		return fmt.Errorf("job %q registered twice", name)
	}
	r.jobs[name] = job
	r.order = append(r.order, name)
	return nil
}

// Select returns the named jobs, or every job when no names are given.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		names = r.order
	}
	out := make([]Job, 0, len(names))
	for _, name := range names {
		job, ok := r.jobs[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown job %q (have %s)", name, strings.Join(r.order, ", "))
		}
		out = append(out, job)
	}
	return out, nil
}
