package ranking

import (
	"sort"

	"github.com/kiraproject/fs-recommender/internal/profile"
)

// PanicSentinel marks every dimension of a candidate rejected into the panic
// zone.
const PanicSentinel = -1

// ZoneConfig holds the learning/panic-zone thresholds.
type ZoneConfig struct {
	// PanicFloor is the user strength below which a large gap triggers a
	// panic-zone reject.
	PanicFloor float64
	// PanicTolerance is the gap above the user's strength that still counts
	// as tolerable when below the panic floor.
	PanicTolerance float64
	// LearningFactor is the gap from which a dimension counts as a
	// learning-zone stretch.
	LearningFactor float64
}

// DefaultZoneConfig returns the standard thresholds.
func DefaultZoneConfig() ZoneConfig {
	return ZoneConfig{
		PanicFloor:     0.2,
		PanicTolerance: 0.1,
		LearningFactor: 0.3,
	}
}

// ZoneCalculator computes a learning/panic-adjusted fit score between a
// candidate and the user vector. Lower scores fit better.
type ZoneCalculator struct {
	cfg ZoneConfig
}

func NewZoneCalculator(cfg ZoneConfig) *ZoneCalculator {
	def := DefaultZoneConfig()
	if cfg.PanicFloor <= 0 {
		cfg.PanicFloor = def.PanicFloor
	}
	if cfg.PanicTolerance <= 0 {
		cfg.PanicTolerance = def.PanicTolerance
	}
	if cfg.LearningFactor <= 0 {
		cfg.LearningFactor = def.LearningFactor
	}
	return &ZoneCalculator{cfg: cfg}
}

// Score clamps the candidate vector dimension by dimension against the user
// vector and returns the adjusted vector together with the fit score: the
// number of positions where the adjusted vector still differs from the user's.
// A candidate demanding far more than a weak user dimension is rejected whole
// into the panic zone and scores worst.
func (z *ZoneCalculator) Score(user, candidate profile.SkillVector) (profile.SkillVector, float64) {
	adjusted := candidate
	for i := 0; i < profile.Dim; i++ {
		switch {
		case adjusted[i] <= user[i]:
			adjusted[i] = user[i]
		case user[i] < z.cfg.PanicFloor && adjusted[i] > user[i]+z.cfg.PanicTolerance:
			for j := range adjusted {
				adjusted[j] = PanicSentinel
			}
			return adjusted, z.hamming(user, adjusted)
		case adjusted[i] >= user[i]+z.cfg.LearningFactor:
			adjusted[i] = 2
		default:
			adjusted[i] = user[i]
		}
	}
	return adjusted, z.hamming(user, adjusted)
}

// Rescore replaces the distance annotation of already ranked candidates with
// their zone score and restores a stable best-first order.
func (z *ZoneCalculator) Rescore(user profile.SkillVector, ranked []Ranked) []Ranked {
	rescored := make([]Ranked, len(ranked))
	for i, r := range ranked {
		_, score := z.Score(user, r.Occupation.Skills)
		rescored[i] = Ranked{Occupation: r.Occupation, Distance: score}
	}
	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Distance < rescored[j].Distance
	})
	return rescored
}

// hamming counts the positions where the two vectors differ.
func (z *ZoneCalculator) hamming(a, b profile.SkillVector) float64 {
	var diff float64
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}
