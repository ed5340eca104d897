package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/profile"
)

// Cascade is the collaborative-filtering front of the pipeline. It keys on the
// user's most recent rating and returns two candidate buckets: one matching
// the declared sector preferences and one not. Whenever collaborative
// evidence is absent it degrades to content-based filtering (job history plus
// preferences).
type Cascade struct {
	cfg  *CascadeConfig
	deps *CascadeDeps
}

// CascadeConfig tunes the rating cascade and the filters it falls back to.
type CascadeConfig struct {
	SimilarityThreshold float64
}

// CascadeDeps aggregates the dependencies of the rating cascade.
type CascadeDeps struct {
	Taxonomy *esco.Taxonomy
	Corpus   *profile.Corpus
	Logger   *zap.Logger
}

func NewCascade(cfg *CascadeConfig, deps *CascadeDeps) *Cascade {
	if cfg == nil {
		cfg = &CascadeConfig{}
	}
	return &Cascade{cfg: cfg, deps: deps}
}

// Buckets runs the three-state cascade for the user against the full pool.
// On the content-based paths both returned buckets are identical.
func (c *Cascade) Buckets(ctx context.Context, pool *esco.Occupations, user *profile.UserProfile) (preferred, alternate *esco.Occupations, err error) {
	uri, rating, ok := user.LastRating()
	if !ok {
		c.deps.Logger.Info("no rating signal, falling back to content-based filtering")
		both, err := c.contentFiltered(ctx, pool, user)
		return both, both, err
	}

	if rating == profile.RatingSkipped {
		c.deps.Logger.Info("last recommendation was skipped",
			zap.String("uri", uri),
			zap.Int("already_shown", len(user.RecommendationLog)),
		)
		both, err := c.contentFiltered(ctx, pool.Without(user.Shown()), user)
		return both, both, err
	}

	candidates := c.peerCandidates(pool, user, uri, rating)
	if candidates.Len() == 0 {
		c.deps.Logger.Info("no compatible peer profiles, filtering by preferences only",
			zap.String("uri", uri),
			zap.Int("rating", rating),
		)
		both, err := c.contentFiltered(ctx, pool.Without(user.Shown()), user)
		return both, both, err
	}

	preferred = candidates.Filter(func(o *esco.Occupation) bool {
		return o.InSectors(user.Preferences)
	})
	alternate = candidates.Filter(func(o *esco.Occupation) bool {
		return !o.InSectors(user.Preferences)
	})

	c.deps.Logger.Info("collaborative candidates partitioned",
		zap.Int("preferred", preferred.Len()),
		zap.Int("alternate", alternate.Len()),
	)
	return preferred, alternate, nil
}

// peerCandidates collects occupations later liked by peers that recorded the
// same rating for the same uri, excluding everything already shown to the
// user. Candidates are resolved in the full pool; uris without a profile are
// logged and skipped.
func (c *Cascade) peerCandidates(pool *esco.Occupations, user *profile.UserProfile, uri string, rating int) *esco.Occupations {
	events := c.deps.Corpus.Events()

	peers := make(map[string]struct{})
	for _, ev := range events {
		if ev.URI == uri && ev.Rating == rating {
			peers[ev.UserID] = struct{}{}
		}
	}
	if len(peers) == 0 {
		return &esco.Occupations{}
	}

	shown := user.Shown()
	seen := make(map[string]struct{})
	candidates := &esco.Occupations{}
	for _, ev := range events {
		if _, match := peers[ev.UserID]; !match || ev.Rating != profile.RatingLiked {
			continue
		}
		if _, already := shown[ev.URI]; already {
			continue
		}
		if _, dup := seen[ev.URI]; dup {
			continue
		}
		seen[ev.URI] = struct{}{}

		occupation := pool.FindByURI(ev.URI)
		if occupation == nil {
			c.deps.Logger.Warn("peer-liked occupation has no profile",
				zap.String("uri", ev.URI),
				zap.Error(fmt.Errorf("%w: %s", esco.ErrMissingReference, ev.URI)),
			)
			continue
		}
		candidates.Items = append(candidates.Items, occupation)
	}

	c.deps.Logger.Info("collected peer candidates",
		zap.Int("matching_peers", len(peers)),
		zap.Int("candidates", candidates.Len()),
	)
	return candidates
}

func (c *Cascade) contentFiltered(ctx context.Context, pool *esco.Occupations, user *profile.UserProfile) (*esco.Occupations, error) {
	steps := []Filter{
		NewHistory(user.JobHistory, &HistoryConfig{SimilarityThreshold: c.cfg.SimilarityThreshold}, &HistoryDeps{
			Taxonomy: c.deps.Taxonomy,
			Logger:   c.deps.Logger,
		}),
		NewPreference(user.Preferences, c.deps.Logger),
	}
	return Run(ctx, c.deps.Logger, steps, pool)
}
