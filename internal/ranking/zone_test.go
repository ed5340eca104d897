package ranking

import (
	"testing"

	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/profile"
)

func TestZoneScore(t *testing.T) {
	t.Parallel()

	zones := NewZoneCalculator(DefaultZoneConfig())

	t.Run("comfort zone scores zero", func(t *testing.T) {
		t.Parallel()
		user := profile.SkillVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
		candidate := profile.SkillVector{0.3, 0.5, 0.4, 0.5, 0.1, 0.5, 0.5, 0.2, 0.5, 0.5}

		adjusted, score := zones.Score(user, candidate)
		if score != 0 {
			t.Fatalf("expected score 0 for a candidate never demanding more, got %v", score)
		}
		if adjusted != user {
			t.Fatalf("expected adjusted vector clamped to user, got %v", adjusted)
		}
	})

	t.Run("learning zone counts stretched dimensions", func(t *testing.T) {
		t.Parallel()
		user := profile.SkillVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
		candidate := user
		candidate[0] = 0.9 // gap 0.4 >= learning factor 0.3
		candidate[3] = 0.9

		adjusted, score := zones.Score(user, candidate)
		if score != 2 {
			t.Fatalf("expected score 2 for two learning dimensions, got %v", score)
		}
		if adjusted[0] != 2 || adjusted[3] != 2 {
			t.Fatalf("expected learning markers, got %v", adjusted)
		}
	})

	t.Run("tolerable gap folds into comfort", func(t *testing.T) {
		t.Parallel()
		user := profile.SkillVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
		candidate := user
		candidate[2] = 0.6 // gap 0.1, under the learning factor

		adjusted, score := zones.Score(user, candidate)
		if score != 0 {
			t.Fatalf("expected score 0 for a tolerable gap, got %v", score)
		}
		if adjusted[2] != user[2] {
			t.Fatalf("expected dimension folded to user strength, got %v", adjusted[2])
		}
	})

	t.Run("panic zone rejects whole candidate", func(t *testing.T) {
		t.Parallel()
		user := profile.SkillVector{0.1, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
		candidate := user
		candidate[0] = 0.5 // user below panic floor, gap over tolerance

		adjusted, score := zones.Score(user, candidate)
		if score != profile.Dim {
			t.Fatalf("expected worst score %d for a panic reject, got %v", profile.Dim, score)
		}
		for i := range adjusted {
			if adjusted[i] != PanicSentinel {
				t.Fatalf("expected sentinel in every dimension, got %v", adjusted)
			}
		}
	})
}

func TestZoneRescore(t *testing.T) {
	t.Parallel()

	zones := NewZoneCalculator(DefaultZoneConfig())
	user := profile.SkillVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

	stretchy := user
	stretchy[0] = 0.9
	stretchy[1] = 0.9
	comfy := profile.SkillVector{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3}

	// Euclidean ranking put the stretchy candidate first; the zone score
	// prefers the comfortable one.
	ranked := []Ranked{
		{Occupation: &esco.Occupation{URI: "occ:stretchy", Skills: stretchy}, Distance: 0.1},
		{Occupation: &esco.Occupation{URI: "occ:comfy", Skills: comfy}, Distance: 2.0},
	}

	rescored := zones.Rescore(user, ranked)

	if rescored[0].Occupation.URI != "occ:comfy" || rescored[0].Distance != 0 {
		t.Fatalf("expected comfy candidate first with score 0, got %s (%v)",
			rescored[0].Occupation.URI, rescored[0].Distance)
	}
	if rescored[1].Occupation.URI != "occ:stretchy" || rescored[1].Distance != 2 {
		t.Fatalf("expected stretchy candidate with score 2, got %s (%v)",
			rescored[1].Occupation.URI, rescored[1].Distance)
	}

	// The input slice keeps its original annotation.
	if ranked[0].Distance != 0.1 {
		t.Fatalf("input slice was mutated")
	}
}

func TestNewZoneCalculatorDefaults(t *testing.T) {
	t.Parallel()

	zones := NewZoneCalculator(ZoneConfig{})
	user := profile.SkillVector{0.1, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	candidate := user
	candidate[0] = 0.5

	// Zero config falls back to the default thresholds, so the panic rule
	// still fires.
	_, score := zones.Score(user, candidate)
	if score != profile.Dim {
		t.Fatalf("expected default thresholds applied, got score %v", score)
	}
}
