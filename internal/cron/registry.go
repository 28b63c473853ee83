package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one maintenance sweep. Run returns how many rows it changed.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Registry holds jobs in registration order. Names are unique since they
// double as metric labels and lock-scoped log fields.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if _, ok := r.find(job.Name()); ok {
		return fmt.Errorf("cron job %q registered twice", job.Name())
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Only narrows the registry to the named jobs, keeping registration order.
// An empty selection keeps every job.
func (r *Registry) Only(names ...string) (*Registry, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.find(name); !ok {
			return nil, fmt.Errorf("unknown cron job %q", name)
		}
		wanted[name] = true
	}
	if len(wanted) == 0 {
		return &Registry{jobs: r.Jobs()}, nil
	}

	narrowed := &Registry{}
	for _, job := range r.jobs {
		if wanted[job.Name()] {
			narrowed.jobs = append(narrowed.jobs, job)
		}
	}
	return narrowed, nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func (r *Registry) find(name string) (Job, bool) {
	for _, job := range r.jobs {
		if job.Name() == name {
			return job, true
		}
	}
	return nil, false
}
