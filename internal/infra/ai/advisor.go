// Package ai picks the analysis advisor for a configuration.
package ai

import (
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/infra/ai/openai"
	"github.com/bryanwahyu/repair-analysis/internal/infra/ai/prompt"
)

// NewAdvisor pakai OpenAI kalau ada API key, kalau tidak pakai rule lokal.
// baseURL points at an OpenAI-compatible endpoint when set.
func NewAdvisor(apiKey, model, baseURL string) domain.Advisor {
	if apiKey == "" {
		return prompt.Heuristic{}
	}
	if baseURL != "" {
		return openai.NewClientWithBaseURL(apiKey, model, baseURL)
	}
	return openai.NewClient(apiKey, model)
}
