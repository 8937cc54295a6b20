package deps

import (
	"context"

	"personacraft/backend/internal/model"
)

// LLMClient abstracts LLM API calls for persona generation and regeneration.
type LLMClient interface {
	GenerateContent(ctx context.Context, prompt string, temperature float32, maxOutputTokens int32) (string, error)
}

// CulturalEnricher abstracts the cultural-intelligence API. Enrichment
// failure is non-fatal; callers keep the original personas.
type CulturalEnricher interface {
	EnrichPersonas(ctx context.Context, personas []model.Persona) ([]model.Persona, error)
}
