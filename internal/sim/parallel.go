package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/model"
)

// Job is one independent invocation of the solver.
type Job struct {
	Name    string
	Params  model.Params
	Initial model.Initial
	Config  Config
}

// Ensemble runs whole jobs on a bounded set of workers. Every job gets its own
// Simulator and state; nothing is shared between runs.
type Ensemble struct {
	workers int
	metrics func() []Metric
	logger  *slog.Logger
}

func NewEnsemble(workers int) *Ensemble {
	return &Ensemble{workers: workers, logger: slog.Default()}
}

// WithMetrics installs a factory called once per job, since metrics are stateful.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

func (e *Ensemble) WithLogger(l *slog.Logger) *Ensemble {
	if l != nil {
		e.logger = l
	}
	return e
}

// Run executes every job. Results are index-aligned with jobs; a job that
// failed validation has a nil result, an unstable job keeps its partial
// result. All job errors are joined.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	err := dynamo.ForEach(ctx, len(jobs), e.workers, func(ctx context.Context, idx int) error {
		job := jobs[idx]
		s := New(job.Params)
		s.SetLogger(e.logger.With("job", job.Name))
		if e.metrics != nil {
			for _, m := range e.metrics() {
				s.AddMetric(m)
			}
		}
		res, err := s.Run(ctx, job.Initial, job.Config)
		results[idx] = res
		if err != nil {
			errs[idx] = fmt.Errorf("job %s: %w", job.Name, err)
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}
