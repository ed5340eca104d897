package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
)

type preferenceFilter struct {
	preferences []int
	logger      *zap.Logger
}

// NewPreference creates a filter that keeps only occupations belonging to at
// least one of the user's declared sectors. Without declared preferences the
// pool passes through unchanged.
func NewPreference(preferences []int, logger *zap.Logger) Filter {
	return &preferenceFilter{preferences: preferences, logger: logger}
}

func (f *preferenceFilter) Name() string { return "sector_preferences" }

func (f *preferenceFilter) IsEnabled() bool { return true }

func (f *preferenceFilter) Validate() error {
	for _, code := range f.preferences {
		if _, ok := esco.SectorName(code); !ok {
			return fmt.Errorf("unknown sector code %d", code)
		}
	}
	return nil
}

func (f *preferenceFilter) Apply(_ context.Context, pool *esco.Occupations) (*esco.Occupations, Step, error) {
	initial := pool.Len()

	if len(f.preferences) == 0 {
		f.logger.Info("no sector preferences given")
		return pool, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	filtered := pool.Filter(func(o *esco.Occupation) bool {
		return o.InSectors(f.preferences)
	})

	f.logger.Info("filtered by sector preferences",
		zap.Ints("sectors", f.preferences),
		zap.Int("removed", initial-filtered.Len()),
	)
	return filtered, Step{Initial: initial, Dropped: initial - filtered.Len(), Left: filtered.Len()}, nil
}
