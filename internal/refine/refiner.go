// Package refine diversifies a ranked recommendation list: it collapses
// near-duplicate specializations of the same occupation family and substitutes
// a broader category whenever it stays close enough to the original match.
package refine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/profile"
	"github.com/kiraproject/fs-recommender/internal/ranking"
)

// DefaultTopN is the size of the ranked head the refiner works on.
const DefaultTopN = 5

// Config tunes the refiner.
type Config struct {
	// TopN is how many deduplicated candidates are refined.
	TopN int
	// BroadeningThreshold is the maximum euclidean distance between a
	// candidate and its broader profile for the broader one to take its
	// place.
	BroadeningThreshold float64
	// Metric recomputes the user distance of substituted entries.
	Metric ranking.Metric
}

// Deps aggregates the refiner dependencies.
type Deps struct {
	Taxonomy *esco.Taxonomy
	// Detailed is the full pool of occupations that carry a FutureSkill
	// profile. Broader uris absent from it are pure aggregation nodes.
	Detailed *esco.Occupations
	Logger   *zap.Logger
}

// Refiner implements the comfort-zone refinement stage.
type Refiner struct {
	cfg  *Config
	deps *Deps
}

func New(cfg *Config, deps *Deps) *Refiner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.BroadeningThreshold <= 0 {
		cfg.BroadeningThreshold = 30
	}
	return &Refiner{cfg: cfg, deps: deps}
}

// Refine deduplicates the ranked list by broader group, takes the head,
// ascends the hierarchy where the broader profile stays close enough, and
// recombines the survivors in first-discovery order. The result is the
// engine's terminal output and is not re-ranked.
func (r *Refiner) Refine(user profile.SkillVector, ranked []ranking.Ranked) ([]ranking.Ranked, error) {
	deduplicated := r.deduplicate(ranked)

	head := deduplicated
	if len(head) > r.cfg.TopN {
		head = head[:r.cfg.TopN]
	}

	final := make([]ranking.Ranked, 0, len(head))
	taken := make(map[string]struct{}, len(head))
	for _, candidate := range head {
		refined, err := r.broaden(user, candidate)
		if err != nil {
			return nil, err
		}
		// Two candidates may ascend to the same broader occupation; keep
		// the first discovery.
		if _, dup := taken[refined.Occupation.URI]; dup {
			continue
		}
		taken[refined.Occupation.URI] = struct{}{}
		final = append(final, refined)
	}
	return final, nil
}

// deduplicate keeps only the highest-ranked candidate per immediate broader
// group. Candidates without a broader uri each form their own group.
func (r *Refiner) deduplicate(ranked []ranking.Ranked) []ranking.Ranked {
	seen := make(map[string]struct{}, len(ranked))
	out := make([]ranking.Ranked, 0, len(ranked))
	for _, candidate := range ranked {
		group := candidate.Occupation.BroaderURI
		if group != "" {
			if _, dup := seen[group]; dup {
				continue
			}
			seen[group] = struct{}{}
		}
		out = append(out, candidate)
	}

	if r.deps.Logger != nil && len(out) < len(ranked) {
		r.deps.Logger.Info("collapsed near-duplicate specializations",
			zap.Int("initial", len(ranked)),
			zap.Int("left", len(out)),
		)
	}
	return out
}

// broaden ascends the hierarchy from the candidate while the broader
// occupation has a detailed profile and stays within the broadening
// threshold. The hierarchy is asserted acyclic along the way.
func (r *Refiner) broaden(user profile.SkillVector, candidate ranking.Ranked) (ranking.Ranked, error) {
	current := candidate.Occupation
	visited := map[string]struct{}{current.URI: {}}

	for current.BroaderURI != "" {
		if _, seen := visited[current.BroaderURI]; seen {
			return ranking.Ranked{}, fmt.Errorf("%w: revisited %s while broadening %s",
				esco.ErrCorruptHierarchy, current.BroaderURI, candidate.Occupation.URI)
		}

		broader := r.deps.Detailed.FindByURI(current.BroaderURI)
		if broader == nil {
			// Pure taxonomy aggregation node, no profile to recommend.
			break
		}
		if current.Skills.EuclideanDistance(broader.Skills) >= r.cfg.BroadeningThreshold {
			break
		}

		visited[broader.URI] = struct{}{}
		current = broader
	}

	if current == candidate.Occupation {
		return candidate, nil
	}

	if r.deps.Logger != nil {
		r.deps.Logger.Info("substituted broader occupation",
			zap.String("original", candidate.Occupation.URI),
			zap.String("broader", current.URI),
		)
	}
	return ranking.Ranked{
		Occupation: current,
		Distance:   r.cfg.Metric.Distance(user, current.Skills),
	}, nil
}
