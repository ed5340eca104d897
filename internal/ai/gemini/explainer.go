package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/ai"
	"github.com/kiraproject/fs-recommender/internal/logger"
	"github.com/kiraproject/fs-recommender/internal/profile"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Explainer turns a recommendation into a short user-facing explanation via
// Gemini.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExplainer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Explain builds the explanation prompt from the recommendation and returns
// Gemini's answer.
func (e *Explainer) Explain(ctx context.Context, req *ai.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("explanation request is required")
	}
	if req.Label == "" {
		return "", fmt.Errorf("occupation label is required")
	}

	userPayload := map[string]any{
		"future_skills": skillMap(req.UserSkills),
		"preferences":   req.Preferences,
	}
	userJSON, err := json.MarshalIndent(userPayload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal user payload: %w", err)
	}

	occupationPayload := map[string]any{
		"uri":              req.URI,
		"label":            req.Label,
		"description":      req.Description,
		"essential_skills": req.EssentialSkills,
		"distance":         req.Distance,
	}
	occupationJSON, err := json.MarshalIndent(occupationPayload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal occupation payload: %w", err)
	}

	prompt := buildPrompt(string(userJSON), string(occupationJSON))

	e.logger.Debug("gemini explanation request",
		zap.String("occupation", req.URI),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	e.logger.Debug("gemini explanation response",
		zap.String("occupation", req.URI),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseExplanation(raw), nil
}

func buildPrompt(userJSON, occupationJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "User profile:\n{{USER_JSON}}\n\nOccupation:\n{{OCCUPATION_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{USER_JSON}}", userJSON)
	prompt = strings.ReplaceAll(prompt, "{{OCCUPATION_JSON}}", occupationJSON)
	return prompt
}

// parseExplanation extracts the explanation field from a JSON answer, falling
// back to the raw text when the model did not answer in JSON.
func parseExplanation(raw string) string {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return strings.TrimSpace(raw)
	}

	if explanation, ok := data["explanation"].(string); ok && strings.TrimSpace(explanation) != "" {
		return strings.TrimSpace(explanation)
	}
	return strings.TrimSpace(raw)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func skillMap(v profile.SkillVector) map[string]float64 {
	out := make(map[string]float64, profile.Dim)
	for i, col := range profile.FSColumns {
		out[col] = v[i]
	}
	return out
}
