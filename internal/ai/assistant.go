package ai

import (
	"context"

	"github.com/kiraproject/fs-recommender/internal/profile"
)

// Request carries everything the assistant needs to explain one
// recommendation to the user.
type Request struct {
	UserSkills      profile.SkillVector
	Preferences     []string
	URI             string
	Label           string
	Description     string
	EssentialSkills []string
	Distance        float64
}

// Explainer produces a short natural-language explanation of why the
// recommended occupation fits the user's FutureSkill profile. It lives
// outside the recommendation engine, which stays deterministic.
type Explainer interface {
	Explain(ctx context.Context, req *Request) (string, error)
}
