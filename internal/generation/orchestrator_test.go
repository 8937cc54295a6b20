package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personacraft/backend/internal/config"
	"personacraft/backend/internal/generation/prompt"
	"personacraft/backend/internal/model"
	"personacraft/backend/internal/retry"
	"personacraft/backend/internal/validation"
)

// scriptedLLM plays back one canned response per call.
type scriptedLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *scriptedLLM) GenerateContent(ctx context.Context, prompt string, temperature float32, maxOutputTokens int32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

type fakeEnricher struct {
	err   error
	calls int
}

func (f *fakeEnricher) EnrichPersonas(ctx context.Context, personas []model.Persona) ([]model.Persona, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for i := range personas {
		personas[i].Cultural = &model.CulturalProfile{Music: []string{"indie folk"}}
	}
	return personas, nil
}

func orchestratorConfig(maxRetries int) *config.Config {
	return &config.Config{
		GeminiModel: "test-model",
		Validation: config.ValidationConfig{
			Enabled:         true,
			MaxRetries:      maxRetries,
			RuleTimeout:     2 * time.Second,
			FallbackEnabled: true,
		},
	}
}

func newOrchestrator(t *testing.T, llm *scriptedLLM, enricher *fakeEnricher, cfg *config.Config) *Orchestrator {
	t.Helper()
	registry := validation.NewRegistry()
	require.NoError(t, validation.RegisterDefaults(registry))
	engine := validation.NewEngine(registry, cfg.Validation.RuleTimeout)

	if enricher == nil {
		// Pass an untyped nil so the orchestrator sees enrichment as disabled.
		return NewOrchestrator(llm, nil, engine, registry, retry.NewManager(), prompt.NewBuilder(nil), nil, cfg)
	}
	return NewOrchestrator(llm, enricher, engine, registry, retry.NewManager(), prompt.NewBuilder(nil), nil, cfg)
}

const validSimpleJSON = `[{"id":"p1","name":"Ada Reyes","type":"SIMPLE","demographics":{"age":34,"location":"Berlin"}}]`

func simpleBrief() model.BriefFormData {
	return model.BriefFormData{Brief: "commuters in Berlin", PersonaType: "SIMPLE", PersonaCount: 1}
}

func TestGenerateHappyPath(t *testing.T) {
	llm := &scriptedLLM{responses: []string{validSimpleJSON}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(3))

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Attempts)
	assert.Zero(t, result.RetryCount)
	assert.Equal(t, model.PersonaTypeSimple, result.PersonaType)
	assert.Equal(t, validation.TemplateSimpleID, result.TemplateID)
	assert.False(t, result.FellBack)
	assert.Nil(t, result.Recurring)
	assert.Equal(t, "llm-only", result.Flow)

	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	assert.Equal(t, float64(100), result.Validation.Score)

	require.Len(t, result.Personas, 1)
	v := result.Personas[0]
	assert.Equal(t, model.VariantEnhanced, v.Kind)
	require.NotNil(t, v.Enhanced)
	assert.Equal(t, float64(100), v.Enhanced.ValidationMetrics.Score)
	assert.Empty(t, v.Enhanced.CulturalSources)
}

func TestGenerateRetriesAfterUnparseableOutput(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"I cannot answer that", validSimpleJSON}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(3))

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, result.RetryCount)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)

	// The second prompt carries remediation guidance from the failed pass.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "Fix the following issues")
}

func TestGenerateUnusableOutputAfterRetries(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"still not json"}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(0))

	_, err := o.Generate(context.Background(), simpleBrief())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnusableOutput))
	assert.Equal(t, 1, llm.calls)
}

func TestGenerateEscalatesToSimplerTemplate(t *testing.T) {
	// First pass is a shell of a B2B persona: the missing required fields
	// produce enough critical errors to jump straight to the simplest tier.
	invalidB2B := `[{"id":"p1","name":"Dana","type":"B2B"}]`
	llm := &scriptedLLM{responses: []string{invalidB2B, validSimpleJSON}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(1))

	result, err := o.Generate(context.Background(), model.BriefFormData{
		Brief:       "ops leads at logistics companies",
		PersonaType: "B2B",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls)
	assert.Equal(t, 1, result.RetryCount)
	assert.Equal(t, model.PersonaTypeSimple, result.PersonaType)
	assert.Equal(t, validation.TemplateSimpleID, result.TemplateID)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
}

func TestGenerateTransparentFallbackOnExhaustion(t *testing.T) {
	// Standard-shaped persona that fails the standard template (no goals or
	// pain points) but satisfies the simple one. With no retry budget the
	// loop falls back to validating against the simplest tier.
	partial := `[{"id":"p1","name":"Ada","type":"STANDARD","summary":"s","demographics":{"age":30,"occupation":"Designer"}}]`
	llm := &scriptedLLM{responses: []string{partial}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(0))

	result, err := o.Generate(context.Background(), model.BriefFormData{
		Brief:       "designers",
		PersonaType: "STANDARD",
	})
	require.NoError(t, err)

	assert.True(t, result.FellBack)
	assert.Equal(t, validation.TemplateSimpleID, result.TemplateID)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	require.Len(t, result.Personas, 1)
}

func TestGenerateReportsOmittedFieldsAsMissing(t *testing.T) {
	// A persona with no demographics at all must surface as missing
	// required fields, not as zero-valued fields failing range checks.
	shell := `[{"id":"p1","name":"Ada","type":"SIMPLE"}]`
	llm := &scriptedLLM{responses: []string{shell}}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(0))

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)

	require.NotNil(t, result.Validation)
	assert.False(t, result.Validation.IsValid)

	errs := result.Validation.Errors()
	require.NotEmpty(t, errs)
	fields := make(map[string]validation.ErrorType)
	for _, verr := range errs {
		assert.NotEqual(t, validation.ErrValueOutOfRange, verr.Type)
		fields[verr.Field] = verr.Type
	}
	assert.Equal(t, validation.ErrRequiredFieldMissing, fields["demographics"])
	assert.Equal(t, validation.ErrRequiredFieldMissing, fields["demographics.age"])
}

func TestGenerateSurfacesLLMErrors(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("transport broke")}
	o := newOrchestrator(t, llm, nil, orchestratorConfig(3))

	_, err := o.Generate(context.Background(), simpleBrief())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persona generation failed")
}

func TestGenerateAppliesCulturalEnrichment(t *testing.T) {
	llm := &scriptedLLM{responses: []string{validSimpleJSON}}
	enricher := &fakeEnricher{}
	o := newOrchestrator(t, llm, enricher, orchestratorConfig(3))

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)

	assert.Equal(t, 1, enricher.calls)
	assert.True(t, result.CulturalApplied)
	assert.Equal(t, "qloo-enrich", result.Flow)
	require.Len(t, result.Personas, 1)
	require.NotNil(t, result.Personas[0].Enhanced)
	assert.Equal(t, []string{"qloo"}, result.Personas[0].Enhanced.CulturalSources)
	require.NotNil(t, result.Personas[0].Profile().Cultural)
}

func TestGenerateEnrichmentFailureIsNonFatal(t *testing.T) {
	llm := &scriptedLLM{responses: []string{validSimpleJSON}}
	enricher := &fakeEnricher{err: errors.New("api down")}
	o := newOrchestrator(t, llm, enricher, orchestratorConfig(3))

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)
	assert.False(t, result.CulturalApplied)
	require.Len(t, result.Personas, 1)
}

func TestGenerateValidationDisabledReturnsBasicVariants(t *testing.T) {
	cfg := orchestratorConfig(3)
	cfg.Validation.Enabled = false
	llm := &scriptedLLM{responses: []string{validSimpleJSON}}
	o := newOrchestrator(t, llm, nil, cfg)

	result, err := o.Generate(context.Background(), simpleBrief())
	require.NoError(t, err)

	assert.Nil(t, result.Validation)
	require.Len(t, result.Personas, 1)
	assert.Equal(t, model.VariantBasic, result.Personas[0].Kind)
}
