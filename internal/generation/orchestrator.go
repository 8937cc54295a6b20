package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"personacraft/backend/internal/config"
	"personacraft/backend/internal/cultural"
	"personacraft/backend/internal/generation/deps"
	"personacraft/backend/internal/generation/prompt"
	"personacraft/backend/internal/generation/response"
	"personacraft/backend/internal/model"
	"personacraft/backend/internal/retry"
	"personacraft/backend/internal/validation"
)

const (
	// GenerationTemperature favors varied personas over determinism.
	GenerationTemperature = 0.7
	// MaxOutputTokens bounds one generation call.
	MaxOutputTokens = 4096
	// MaxPersonaCount caps how many personas one request may ask for.
	MaxPersonaCount = 5
	// RecurrenceThreshold is how many repeated failures count as recurring.
	RecurrenceThreshold = 2
)

// ErrUnusableOutput means the LLM never produced parseable personas within
// the retry budget. Handlers map it to 422.
var ErrUnusableOutput = errors.New("model output could not be parsed into personas")

// Orchestrator runs the generate -> validate -> retry loop.
type Orchestrator struct {
	llm      deps.LLMClient
	enricher deps.CulturalEnricher // nil disables enrichment
	engine   *validation.Engine
	registry *validation.Registry
	manager  *retry.Manager
	builder  *prompt.Builder
	vocab    *cultural.Vocabularies
	cfg      *config.Config
}

// NewOrchestrator wires the generation loop. enricher and vocab may be nil.
func NewOrchestrator(llm deps.LLMClient, enricher deps.CulturalEnricher, engine *validation.Engine, registry *validation.Registry, manager *retry.Manager, builder *prompt.Builder, vocab *cultural.Vocabularies, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		llm:      llm,
		enricher: enricher,
		engine:   engine,
		registry: registry,
		manager:  manager,
		builder:  builder,
		vocab:    vocab,
		cfg:      cfg,
	}
}

// Result is the outcome of one generation request. Personas are always
// populated on a nil-error return, even when validation never passed
// (transparent failure: quality is communicated via Validation).
type Result struct {
	RequestID       string
	Personas        []model.PersonaVariant
	PersonaType     model.PersonaType
	TemplateID      string
	Attempts        int
	RetryCount      int
	Flow            string
	CulturalApplied bool
	FellBack        bool
	Validation      *validation.BatchResult
	Recurring       *retry.RecurringReport
	Duration        time.Duration
}

// Generate produces validated personas for the brief. Only unexpected
// failures (LLM transport errors, cancelled context, fully unusable output)
// surface as errors.
func (o *Orchestrator) Generate(ctx context.Context, brief model.BriefFormData) (*Result, error) {
	start := time.Now()

	personaType := parsePersonaType(brief.PersonaType)
	count := clampCount(brief.PersonaCount)
	requestID := uuid.New().String()

	template := o.registry.GetByPersonaType(personaType)
	if template == nil {
		return nil, fmt.Errorf("no template registered for persona type %s", personaType)
	}
	strategy := o.clampStrategy(template.Fallback)

	vctx := &validation.Context{
		RequestID:   requestID,
		PersonaType: personaType,
		Brief:       brief,
	}
	if o.vocab != nil {
		vctx.CulturalConstraints = o.vocab.Constraints()
	}

	flow := "llm-only"
	if o.enricher != nil {
		flow = "qloo-enrich"
	}

	result := &Result{
		RequestID:   requestID,
		PersonaType: personaType,
		TemplateID:  template.ID,
		Flow:        flow,
	}

	var personas []model.Persona
	var rawMaps []map[string]any
	var batch validation.BatchResult
	validated := false
	enhancement := ""
	attempt := 0

	for {
		result.Attempts = attempt + 1
		generationPrompt := o.builder.BuildGenerationPrompt(brief, personaType, count, enhancement)

		raw, err := o.llm.GenerateContent(ctx, generationPrompt, GenerationTemperature, MaxOutputTokens)
		if err != nil {
			return nil, fmt.Errorf("persona generation failed: %w", err)
		}

		parsed, perr := response.Parse(raw)
		if perr != nil {
			log.Printf("[Orchestrator] request=%s attempt=%d unparseable output: %v", requestID, attempt, perr)
			decision := o.manager.ShouldRetry(parseFailureErrors(perr), vctx, strategy, attempt)
			if !decision.ShouldRetry {
				if len(personas) > 0 {
					// An earlier attempt parsed; return that transparently.
					break
				}
				return nil, fmt.Errorf("%w: %v", ErrUnusableOutput, perr)
			}
			if err := o.prepareRetry(ctx, result, vctx, decision, nil); err != nil {
				return nil, err
			}
			enhancement = decision.EnhancedPrompt
			attempt++
			continue
		}

		personas = profiles(parsed.Variants)
		rawMaps = parsed.Raw
		personas, result.CulturalApplied = o.enrich(ctx, personas)
		if result.CulturalApplied {
			if err := response.MergeCultural(rawMaps, personas); err != nil {
				return nil, fmt.Errorf("failed to merge enrichment for validation: %w", err)
			}
		}

		if !o.cfg.Validation.Enabled {
			break
		}

		// Validate the raw decoded output, not a typed re-encoding: fields
		// the model omitted must stay absent so STRUCTURE rules see them.
		batch = o.engine.ValidateBatch(ctx, rawMaps, template.ID, vctx)
		validated = true
		result.TemplateID = template.ID

		if batch.IsValid {
			break
		}

		decision := o.manager.ShouldRetry(batch.Errors(), vctx, strategy, attempt)
		if !decision.ShouldRetry {
			log.Printf("[Orchestrator] request=%s retries exhausted: %s", requestID, decision.Reason)
			if strategy.FallbackAfterMaxRetries && o.cfg.Validation.FallbackEnabled && personaType != model.PersonaTypeSimple {
				fallbackBatch := o.engine.ValidateBatch(ctx, rawMaps, validation.TemplateSimpleID, vctx)
				log.Printf("[Orchestrator] request=%s fallback validation against %s: valid=%v",
					requestID, validation.TemplateSimpleID, fallbackBatch.IsValid)
				batch = fallbackBatch
				result.TemplateID = validation.TemplateSimpleID
				result.FellBack = true
			}
			break
		}

		if decision.SuggestedTemplate != "" {
			if next := o.registry.GetByID(decision.SuggestedTemplate); next != nil && next.PersonaType != personaType {
				log.Printf("[Orchestrator] request=%s escalating %s -> %s (level %d)",
					requestID, personaType, next.PersonaType, decision.EscalationLevel)
				template = next
				personaType = next.PersonaType
				strategy = o.clampStrategy(next.Fallback)
				vctx.PersonaType = personaType
				result.PersonaType = personaType
			}
		}

		if err := o.prepareRetry(ctx, result, vctx, decision, batch.Errors()); err != nil {
			return nil, err
		}
		enhancement = decision.EnhancedPrompt
		attempt++
	}

	if validated {
		result.Validation = &batch
		result.Personas = enhanceVariants(personas, batch, result.TemplateID, result.CulturalApplied)
	} else {
		result.Personas = basicVariants(personas)
	}
	if result.RetryCount > 0 {
		if report := o.manager.DetectRecurringErrors(requestID, RecurrenceThreshold); report.HasRecurringErrors {
			result.Recurring = &report
		}
	}
	result.Duration = time.Since(start)

	log.Printf("[Orchestrator] request=%s done: personas=%d attempts=%d retries=%d template=%s valid=%v (%v)",
		requestID, len(result.Personas), result.Attempts, result.RetryCount, result.TemplateID,
		result.Validation == nil || result.Validation.IsValid, result.Duration)
	return result, nil
}

// prepareRetry waits out the backoff delay and threads the attempt's errors
// into the validation context for the next pass.
func (o *Orchestrator) prepareRetry(ctx context.Context, result *Result, vctx *validation.Context, decision retry.Decision, errs []validation.ValidationError) error {
	result.RetryCount++
	vctx.GenerationAttempt++
	vctx.PreviousErrors = append(vctx.PreviousErrors, errs...)

	if decision.RetryDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(decision.RetryDelay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("generation cancelled during retry backoff: %w", ctx.Err())
	}
}

// enrich runs cultural enrichment; failure is non-fatal and keeps originals.
func (o *Orchestrator) enrich(ctx context.Context, personas []model.Persona) ([]model.Persona, bool) {
	if o.enricher == nil || len(personas) == 0 {
		return personas, false
	}
	enriched, err := o.enricher.EnrichPersonas(ctx, personas)
	if err != nil {
		log.Printf("[Orchestrator] Warning: cultural enrichment failed, keeping originals: %v", err)
		return personas, false
	}
	return enriched, true
}

func (o *Orchestrator) clampStrategy(s validation.RetryStrategy) validation.RetryStrategy {
	if s.MaxRetries > o.cfg.Validation.MaxRetries {
		s.MaxRetries = o.cfg.Validation.MaxRetries
	}
	return s
}

func parseFailureErrors(err error) []validation.ValidationError {
	return []validation.ValidationError{{
		ID:       string(validation.ErrStructureInvalid) + ":response",
		Type:     validation.ErrStructureInvalid,
		Field:    "response",
		Message:  err.Error(),
		Severity: validation.SeverityError,
	}}
}

func parsePersonaType(raw string) model.PersonaType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "B2B":
		return model.PersonaTypeB2B
	case "SIMPLE":
		return model.PersonaTypeSimple
	default:
		return model.PersonaTypeStandard
	}
}

func clampCount(n int) int {
	if n <= 0 {
		return config.DefaultPersonaCount
	}
	if n > MaxPersonaCount {
		return MaxPersonaCount
	}
	return n
}

func profiles(variants []model.PersonaVariant) []model.Persona {
	out := make([]model.Persona, len(variants))
	for i, v := range variants {
		out[i] = *v.Profile()
	}
	return out
}

func basicVariants(personas []model.Persona) []model.PersonaVariant {
	out := make([]model.PersonaVariant, len(personas))
	for i := range personas {
		out[i] = model.NewBasicVariant(&personas[i])
	}
	return out
}

// enhanceVariants attaches per-persona validation metrics, upgrading each
// persona to the enhanced variant.
func enhanceVariants(personas []model.Persona, batch validation.BatchResult, templateID string, culturalApplied bool) []model.PersonaVariant {
	out := make([]model.PersonaVariant, len(personas))
	for i := range personas {
		enhanced := &model.EnhancedPersona{Persona: personas[i]}
		if i < len(batch.Results) {
			r := batch.Results[i]
			enhanced.ValidationMetrics = model.ValidationMetrics{
				Score:        r.Score,
				ErrorCount:   len(r.Errors),
				WarningCount: len(r.Warnings),
				TemplateID:   templateID,
			}
		}
		if culturalApplied {
			enhanced.CulturalSources = []string{"qloo"}
		}
		out[i] = model.NewEnhancedVariant(enhanced)
	}
	return out
}
