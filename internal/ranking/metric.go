package ranking

import (
	"fmt"
	"strings"

	"github.com/kiraproject/fs-recommender/internal/profile"
)

// Metric is the distance strategy of a ranker instance. It is fixed per
// engine, not per request.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricCosine
)

// ParseMetric resolves a configured metric name.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "euclidean":
		return MetricEuclidean, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unsupported metric: %s", s)
	}
}

func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cosine"
	default:
		return "euclidean"
	}
}

// Distance returns the metric's distance between two vectors. Cosine
// similarity is exposed as 1-similarity so both metrics order ascending,
// smaller meaning closer.
func (m Metric) Distance(a, b profile.SkillVector) float64 {
	if m == MetricCosine {
		return 1 - a.CosineSimilarity(b)
	}
	return a.EuclideanDistance(b)
}
