package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scheduler runs tasks with bounded parallelism and settles every one of them
type Scheduler struct {
	limit   int
	logger  *zap.Logger
	metrics *Metrics
}

// NewScheduler creates a new scheduler running at most limit tasks at once
func NewScheduler(limit int, logger *zap.Logger, metrics *Metrics) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Scheduler{limit: limit, logger: logger.Named("scheduler"), metrics: metrics}
}

// Run executes tasks with at most limit running at once.
// outcomes[i] always corresponds to tasks[i]; a failing task never cancels the others.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(s.limit)

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = s.settle(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Scheduler) settle(ctx context.Context, task Task) (out Outcome) {
	s.metrics.inFlight.Add(ctx, 1)
	defer s.metrics.inFlight.Add(ctx, -1)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", zap.Any("panic", r))
			out = Outcome{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Outcome{Err: err}
	}
	c, err := task(ctx)
	return Outcome{Candidate: c, Err: err}
}
