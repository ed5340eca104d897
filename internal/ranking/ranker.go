package ranking

import (
	"sort"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/profile"
)

// Ranked is a candidate annotated with its scalar distance to the user.
type Ranked struct {
	Occupation *esco.Occupation
	Distance   float64
}

// Ranker orders candidates by vector distance to the user profile, best
// first. Equal distances keep their input order.
type Ranker struct {
	metric Metric
}

func NewRanker(metric Metric) *Ranker {
	return &Ranker{metric: metric}
}

func (r *Ranker) Metric() Metric { return r.metric }

// Rank annotates every candidate with its distance to the user vector and
// returns them sorted best first. The input pool is left untouched.
func (r *Ranker) Rank(user profile.SkillVector, pool *esco.Occupations) []Ranked {
	ranked := make([]Ranked, 0, pool.Len())
	for _, oc := range pool.Items {
		ranked = append(ranked, Ranked{
			Occupation: oc,
			Distance:   r.metric.Distance(user, oc.Skills),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	return ranked
}
