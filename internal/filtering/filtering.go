package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
)

// Filter is a single candidate-narrowing step of the recommendation cascade.
// Apply must not mutate the input pool; it returns a fresh one.
type Filter interface {
	Name() string
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, pool *esco.Occupations) (*esco.Occupations, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the remaining
// candidate pool. A filter error aborts the whole run.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, pool *esco.Occupations) (*esco.Occupations, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if logger != nil {
				logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil {
			logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		pool = next
	}

	return pool, nil
}
