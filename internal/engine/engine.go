// Package engine sequences the recommendation pipeline: rating cascade,
// bucket selection, distance ranking, optional zone scoring and comfort-zone
// refinement. One request is one synchronous, deterministic run behind a
// single failure boundary.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/filtering"
	"github.com/kiraproject/fs-recommender/internal/profile"
	"github.com/kiraproject/fs-recommender/internal/ranking"
	"github.com/kiraproject/fs-recommender/internal/refine"
)

// ErrNoRecommendation is returned when every filter stage exhausts the pool
// and no fallback leaves a candidate. Only a truly empty universe ends up
// here.
var ErrNoRecommendation = errors.New("no recommendation available")

// Config holds the per-instance engine settings.
type Config struct {
	Metric              ranking.Metric
	SimilarityThreshold float64
	TopN                int
	ZoneMode            bool
	Zone                ranking.ZoneConfig
	// RequestTimeout bounds one pipeline run. Zero disables the timeout.
	RequestTimeout time.Duration
}

// Recommendation is one entry of the terminal result.
type Recommendation struct {
	Occupation *esco.Occupation
	Distance   float64
}

// Result is the ordered outcome of one pipeline run.
type Result struct {
	RunID string
	Items []Recommendation
}

// Engine runs recommendation requests against process-wide, read-only data.
// It never mutates the pool, taxonomy or corpus, so concurrent requests are
// safe without locking.
type Engine struct {
	cfg      Config
	pool     *esco.Occupations
	taxonomy *esco.Taxonomy
	corpus   *profile.Corpus
	logger   *zap.Logger

	cascade *filtering.Cascade
	ranker  *ranking.Ranker
	zones   *ranking.ZoneCalculator
	refiner *refine.Refiner
}

func New(cfg Config, pool *esco.Occupations, taxonomy *esco.Taxonomy, corpus *profile.Corpus, logger *zap.Logger) (*Engine, error) {
	if pool.Len() == 0 {
		return nil, fmt.Errorf("occupation pool is empty")
	}
	if taxonomy == nil {
		return nil, fmt.Errorf("taxonomy is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = filtering.DefaultSimilarityThreshold
	}
	if cfg.TopN <= 0 {
		cfg.TopN = refine.DefaultTopN
	}

	e := &Engine{
		cfg:      cfg,
		pool:     pool,
		taxonomy: taxonomy,
		corpus:   corpus,
		logger:   logger,
	}
	e.cascade = filtering.NewCascade(
		&filtering.CascadeConfig{SimilarityThreshold: cfg.SimilarityThreshold},
		&filtering.CascadeDeps{Taxonomy: taxonomy, Corpus: corpus, Logger: logger},
	)
	e.ranker = ranking.NewRanker(cfg.Metric)
	e.zones = ranking.NewZoneCalculator(cfg.Zone)
	e.refiner = refine.New(
		&refine.Config{
			TopN:                cfg.TopN,
			BroadeningThreshold: cfg.SimilarityThreshold,
			Metric:              cfg.Metric,
		},
		&refine.Deps{Taxonomy: taxonomy, Detailed: pool, Logger: logger},
	)
	return e, nil
}

// Recommend runs the full pipeline for one user. The run is atomic: any stage
// error aborts the request without a partial result and without touching
// shared state.
func (e *Engine) Recommend(ctx context.Context, user *profile.UserProfile) (*Result, error) {
	if user == nil {
		return nil, fmt.Errorf("user profile is required")
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID), zap.String("user_id", user.ID))
	logger.Info("starting recommendation run",
		zap.String("metric", e.cfg.Metric.String()),
		zap.Int("pool", e.pool.Len()),
		zap.Int("peers", e.corpus.Len()),
	)

	preferred, alternate, err := e.cascade.Buckets(ctx, e.pool, user)
	if err != nil {
		return nil, fmt.Errorf("rating cascade: %w", err)
	}

	// Preferred bucket wins unless it is empty.
	bucket := preferred
	if bucket.Len() == 0 {
		logger.Info("preferred bucket empty, using alternate bucket",
			zap.Int("alternate", alternate.Len()),
		)
		bucket = alternate
	}
	if bucket.Len() == 0 {
		return nil, fmt.Errorf("%w: all candidates filtered out", ErrNoRecommendation)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := e.ranker.Rank(user.Skills, bucket)
	if e.cfg.ZoneMode {
		ranked = e.zones.Rescore(user.Skills, ranked)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	final, err := e.refiner.Refine(user.Skills, ranked)
	if err != nil {
		return nil, fmt.Errorf("comfort zone refinement: %w", err)
	}
	if len(final) == 0 {
		return nil, fmt.Errorf("%w: refinement left no candidates", ErrNoRecommendation)
	}

	result := &Result{RunID: runID, Items: make([]Recommendation, 0, len(final))}
	for _, r := range final {
		result.Items = append(result.Items, Recommendation{
			Occupation: r.Occupation,
			Distance:   r.Distance,
		})
	}

	logger.Info("recommendation run finished",
		zap.Int("recommendations", len(result.Items)),
		zap.String("best", result.Items[0].Occupation.URI),
	)
	return result, nil
}

// Top returns the single best-fit recommendation of a result.
func (r *Result) Top() *Recommendation {
	if r == nil || len(r.Items) == 0 {
		return nil
	}
	return &r.Items[0]
}
