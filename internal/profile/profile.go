package profile

import (
	"fmt"
	"math"
)

// Dim is the fixed dimensionality of a FutureSkill profile.
const Dim = 10

// FSColumns lists the canonical FutureSkill column names in schema order.
var FSColumns = [Dim]string{"FS1", "FS2", "FS3", "FS4", "FS5", "FS6", "FS7", "FS8", "FS9", "FS10"}

// SkillVector holds the ten FutureSkill strengths of a user or occupation in
// fixed order. Vectors are comparable only after the occupation side has been
// distribution-matched to the user scale by the normalizer that produced them.
type SkillVector [Dim]float64

// EuclideanDistance returns the euclidean distance between two vectors.
func (v SkillVector) EuclideanDistance(o SkillVector) float64 {
	var sum float64
	for i := range v {
		d := v[i] - o[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine similarity between two vectors. A zero
// vector has no direction, so its similarity to anything is 0.
func (v SkillVector) CosineSimilarity(o SkillVector) float64 {
	var dot, normV, normO float64
	for i := range v {
		dot += v[i] * o[i]
		normV += v[i] * v[i]
		normO += o[i] * o[i]
	}
	if normV == 0 || normO == 0 {
		return 0
	}
	return dot / (math.Sqrt(normV) * math.Sqrt(normO))
}

// Ratings recorded for a shown recommendation.
const (
	RatingDisliked = -1
	RatingSkipped  = 0
	RatingLiked    = 1
)

// MaxJobHistory caps the number of reacted jobs carried in a profile.
const MaxJobHistory = 3

// HistoryEntry is one reaction to a job from the user's recent history.
type HistoryEntry struct {
	URI   string
	Liked bool
}

// UserProfile bundles everything the engine needs to know about one user.
type UserProfile struct {
	ID                string
	Skills            SkillVector
	Preferences       []int
	JobHistory        []HistoryEntry
	RecommendationLog []string
	RatingLog         []int
}

// Validate checks the structural invariants of the profile: the rating log is
// aligned 1:1 with the recommendation log, ratings are tri-state and the job
// history is capped.
func (u *UserProfile) Validate() error {
	if len(u.RatingLog) != len(u.RecommendationLog) {
		return fmt.Errorf("%w: %d ratings for %d recommendations", ErrSchemaMismatch, len(u.RatingLog), len(u.RecommendationLog))
	}
	for _, r := range u.RatingLog {
		if r < RatingDisliked || r > RatingLiked {
			return fmt.Errorf("%w: rating %d out of range", ErrSchemaMismatch, r)
		}
	}
	if len(u.JobHistory) > MaxJobHistory {
		return fmt.Errorf("%w: job history holds %d entries, at most %d allowed", ErrSchemaMismatch, len(u.JobHistory), MaxJobHistory)
	}
	return nil
}

// LastRating returns the most recent shown uri and its rating. ok is false
// when the user has no recommendation history yet.
func (u *UserProfile) LastRating() (uri string, rating int, ok bool) {
	if len(u.RecommendationLog) == 0 || len(u.RatingLog) == 0 {
		return "", 0, false
	}
	last := len(u.RecommendationLog) - 1
	return u.RecommendationLog[last], u.RatingLog[last], true
}

// Shown returns the set of uris already recommended to the user.
func (u *UserProfile) Shown() map[string]struct{} {
	shown := make(map[string]struct{}, len(u.RecommendationLog))
	for _, uri := range u.RecommendationLog {
		shown[uri] = struct{}{}
	}
	return shown
}
