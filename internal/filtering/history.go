package filtering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/profile"
)

// DefaultSimilarityThreshold is the maximum euclidean distance under which two
// occupations count as similar.
const DefaultSimilarityThreshold = 30.0

type historyFilter struct {
	history []profile.HistoryEntry
	cfg     *HistoryConfig
	deps    *HistoryDeps
}

// HistoryConfig tunes the job-history filter.
type HistoryConfig struct {
	SimilarityThreshold float64
}

// HistoryDeps aggregates the dependencies of the job-history filter.
type HistoryDeps struct {
	Taxonomy *esco.Taxonomy
	Logger   *zap.Logger
}

// NewHistory creates a filter that removes occupations the user disliked in
// the past, occupations similar to those, and their narrower occupations.
func NewHistory(history []profile.HistoryEntry, cfg *HistoryConfig, deps *HistoryDeps) Filter {
	if cfg == nil {
		cfg = &HistoryConfig{}
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &historyFilter{history: history, cfg: cfg, deps: deps}
}

func (f *historyFilter) Name() string { return "job_history" }

func (f *historyFilter) IsEnabled() bool { return true }

func (f *historyFilter) Validate() error {
	if f.deps == nil || f.deps.Taxonomy == nil {
		return fmt.Errorf("taxonomy is required")
	}
	if f.deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

func (f *historyFilter) Apply(_ context.Context, pool *esco.Occupations) (*esco.Occupations, Step, error) {
	initial := pool.Len()

	var disliked []string
	for _, entry := range f.history {
		if !entry.Liked {
			disliked = append(disliked, entry.URI)
		}
	}

	if len(disliked) == 0 {
		f.deps.Logger.Info("no disliked jobs, skipping job history filter")
		return pool, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	exclude := make(map[string]struct{})
	for _, uri := range disliked {
		exclude[uri] = struct{}{}

		// Occupations within the similarity threshold of the disliked one.
		if dislikedOcc := pool.FindByURI(uri); dislikedOcc != nil {
			similar := 0
			for _, candidate := range pool.Items {
				if dislikedOcc.Skills.EuclideanDistance(candidate.Skills) < f.cfg.SimilarityThreshold {
					exclude[candidate.URI] = struct{}{}
					similar++
				}
			}
			f.deps.Logger.Info("excluding occupations similar to disliked job",
				zap.String("disliked", uri),
				zap.Int("similar", similar),
			)
		}

		narrower, err := f.deps.Taxonomy.Narrower(uri)
		if err != nil {
			if errors.Is(err, esco.ErrMissingReference) {
				f.deps.Logger.Warn("disliked job not found in taxonomy", zap.String("uri", uri))
				continue
			}
			return nil, Step{}, fmt.Errorf("narrower occupations of %s: %w", uri, err)
		}
		for _, n := range narrower {
			exclude[n] = struct{}{}
		}
		f.deps.Logger.Info("excluding narrower occupations of disliked job",
			zap.String("disliked", uri),
			zap.Int("narrower", len(narrower)),
		)
	}

	filtered := pool.Without(exclude)
	return filtered, Step{Initial: initial, Dropped: initial - filtered.Len(), Left: filtered.Len()}, nil
}
