package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"personacraft/backend/internal/config"
	"personacraft/backend/internal/cultural"
	"personacraft/backend/internal/generation"
	"personacraft/backend/internal/generation/deps"
	"personacraft/backend/internal/generation/prompt"
	"personacraft/backend/internal/generation/sanitize"
	"personacraft/backend/internal/model"
	"personacraft/backend/internal/retry"
	"personacraft/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxBriefLength is the maximum allowed brief length in characters.
const MaxBriefLength = 2000

var (
	generator   *generation.Orchestrator
	registryRef *validation.Registry
	cfgRef      *config.Config
	mu          sync.RWMutex
)

// InitGenerator wires the full generation stack: cultural data, validation
// registry/engine, retry manager, LLM and enrichment clients.
func InitGenerator(cfg *config.Config) error {
	ctx := context.Background()

	vocab, err := cultural.Load("data/cultural.json")
	if err != nil {
		log.Printf("Warning: failed to load cultural data: %v", err)
		vocab = nil
	}

	registry := validation.NewRegistry()
	if err := validation.RegisterDefaults(registry); err != nil {
		return err
	}
	engine := validation.NewEngine(registry, cfg.Validation.RuleTimeout)
	manager := retry.NewManager()
	manager.StartSweeper(ctx, retry.DefaultSweepInterval, retry.DefaultPatternTTL)
	builder := prompt.NewBuilder(vocab)

	llm, err := generation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}

	var enricher deps.CulturalEnricher
	if cfg.QlooAPIURL != "" {
		enricher = generation.NewQlooClient(cfg.QlooAPIURL, cfg.QlooAPIKey)
	} else {
		log.Println("[INFO] QLOO_API_URL not set, cultural enrichment disabled")
	}

	o := generation.NewOrchestrator(llm, enricher, engine, registry, manager, builder, vocab, cfg)
	Configure(o, registry, cfg)
	log.Println("Persona generator initialized")
	return nil
}

// Configure installs the orchestrator and registry. Split out from
// InitGenerator so tests can inject fakes.
func Configure(o *generation.Orchestrator, registry *validation.Registry, cfg *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	generator = o
	registryRef = registry
	cfgRef = cfg
}

// GenerateRequest accepts both the legacy {"brief": "..."} payload and the
// full structured brief.
type GenerateRequest struct {
	model.BriefFormData
}

type validationDTO struct {
	Enabled            bool                         `json:"enabled"`
	IsValid            bool                         `json:"isValid"`
	Score              float64                      `json:"score"`
	ErrorCount         int                          `json:"errorCount"`
	WarningCount       int                          `json:"warningCount"`
	TemplateID         string                       `json:"templateId"`
	ValidationTime     int64                        `json:"validationTimeMs"`
	RetryCount         int                          `json:"retryCount"`
	ErrorsByType       map[validation.ErrorType]int `json:"errorsByType,omitempty"`
	PersonasValidated  int                          `json:"personasValidated,omitempty"`
	SuccessfulPersonas int                          `json:"successfulPersonas,omitempty"`
	Errors             []validation.ValidationError `json:"errors,omitempty"`
	FellBack           bool                         `json:"fellBack,omitempty"`
}

type generationDTO struct {
	RequestID  string `json:"requestId"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"durationMs"`
	Model      string `json:"model"`
	Flow       string `json:"flow"`
}

// HandleGeneratePersonas serves POST /api/generate-personas.
func HandleGeneratePersonas(c *gin.Context) {
	startTime := time.Now()

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	// Normalize Unicode to NFC form before security checks so lookalike
	// characters cannot bypass the injection screen.
	req.Brief = norm.NFC.String(strings.TrimSpace(req.Brief))

	if req.Brief == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Brief is required",
			"code":  "MISSING_BRIEF",
		})
		return
	}
	if len([]rune(req.Brief)) > MaxBriefLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Brief is too long (max 2000 characters)",
			"code":  "BRIEF_TOO_LONG",
		})
		return
	}

	if isInjectionAttempt(req.Brief) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Brief contains content that cannot be processed",
			"code":  "INVALID_BRIEF",
		})
		return
	}
	req.Brief = sanitize.Brief(req.Brief)

	mu.RLock()
	currentGenerator := generator
	cfg := cfgRef
	mu.RUnlock()

	if currentGenerator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Generation service is not available",
			"code":  "SERVICE_UNAVAILABLE",
		})
		return
	}

	genCtx, cancel := context.WithTimeout(c.Request.Context(), cfg.GenerateLimit)
	defer cancel()

	result, err := currentGenerator.Generate(genCtx, req.BriefFormData)
	if err != nil {
		log.Printf("[PERF] Generation failed after %v: %v", time.Since(startTime), err)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusRequestTimeout, gin.H{
				"error":        "Persona generation timed out. Please try again.",
				"code":         "TIMEOUT",
				"userGuidance": "Try a shorter brief or fewer personas.",
				"canRetry":     true,
			})
		case errors.Is(err, generation.ErrUnusableOutput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":        "Generated content failed validation and could not be repaired.",
				"code":         "GENERATION_INVALID",
				"userGuidance": "Rephrase the brief with a clearer audience description, or request a simpler persona type.",
				"canRetry":     true,
			})
		case isRateLimitError(err):
			log.Printf("[QUOTA] Upstream model rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "The generation service is temporarily at capacity.",
				"code":       "MODEL_RATE_LIMITED",
				"retryAfter": 60,
				"canRetry":   true,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":        "Failed to generate personas. Please try again.",
				"code":         "INTERNAL_ERROR",
				"userGuidance": "If this keeps happening, simplify the brief.",
				"canRetry":     false,
			})
		}
		return
	}

	log.Printf("[PERF] Generation completed in %v (personas: %d, attempts: %d)",
		time.Since(startTime), len(result.Personas), result.Attempts)

	c.JSON(http.StatusOK, buildResponse(result, cfg))
}

func buildResponse(result *generation.Result, cfg *config.Config) gin.H {
	personas := make([]any, len(result.Personas))
	for i, v := range result.Personas {
		if v.Kind == model.VariantEnhanced {
			personas[i] = v.Enhanced
		} else {
			personas[i] = v.Basic
		}
	}

	resp := gin.H{
		"success":  true,
		"personas": personas,
		"generation": generationDTO{
			RequestID:  result.RequestID,
			Attempts:   result.Attempts,
			DurationMs: result.Duration.Milliseconds(),
			Model:      cfg.GeminiModel,
			Flow:       result.Flow,
		},
		"sources": gin.H{
			"llm":      true,
			"cultural": result.CulturalApplied,
		},
		"featureFlags": gin.H{
			"validationEnabled": cfg.Validation.Enabled,
			"fallbackEnabled":   cfg.Validation.FallbackEnabled,
			"culturalEnabled":   cfg.QlooAPIURL != "",
		},
	}

	v := validationDTO{Enabled: cfg.Validation.Enabled, RetryCount: result.RetryCount}
	if result.Validation != nil {
		batch := result.Validation
		v.IsValid = batch.IsValid
		v.Score = batch.Score
		v.ErrorCount = len(batch.Errors())
		v.WarningCount = len(batch.Warnings())
		v.TemplateID = result.TemplateID
		v.PersonasValidated = len(batch.Results)
		v.SuccessfulPersonas = batch.SuccessfulPersonas
		v.ErrorsByType = batch.ErrorsByType
		v.Errors = batch.Errors()
		v.FellBack = result.FellBack
		var total time.Duration
		for _, r := range batch.Results {
			total += r.Metadata.ValidationTime
		}
		v.ValidationTime = total.Milliseconds()
	}
	resp["validation"] = v

	if result.Recurring != nil {
		resp["recurringErrors"] = result.Recurring
	}
	return resp
}

// isRateLimitError checks if the error is an upstream model rate limit.
func isRateLimitError(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	errStr := err.Error()
	return strings.Contains(errStr, "ResourceExhausted") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}

// injectionPatterns screens briefs before they reach the LLM. Briefs are
// audience descriptions; instruction-shaped input is rejected outright.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|the\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)(reveal|print|show|output)\s+(your\s+)?(system\s+prompt|instructions)`),
	regexp.MustCompile(`(?i)you\s+are\s+no\s+longer`),
	regexp.MustCompile(`(?i)developer\s+mode`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)</?system>`),
}

func isInjectionAttempt(brief string) bool {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(brief) {
			log.Printf("[SECURITY] Injection attempt blocked")
			return true
		}
	}
	return false
}
