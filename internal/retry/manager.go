// Package retry decides whether a failed validation pass should trigger
// regeneration, with what delay, and whether to escalate to a simpler
// template. The manager never returns errors; every outcome is a decision.
package retry

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"personacraft/backend/internal/model"
	"personacraft/backend/internal/validation"
)

// DefaultMaxEntries bounds the in-memory pattern store.
const DefaultMaxEntries = 1000

// Defaults for the background pattern sweep.
const (
	DefaultSweepInterval = time.Hour
	DefaultPatternTTL    = 24 * time.Hour
)

// criticalTypes are the error types that accelerate escalation.
var criticalTypes = map[validation.ErrorType]bool{
	validation.ErrStructureInvalid:      true,
	validation.ErrBusinessRuleViolation: true,
	validation.ErrRequiredFieldMissing:  true,
}

// deEscalationChain walks Downgrade until the simplest tier, yielding the
// fallback chain most complex first. SIMPLE yields an empty chain.
func deEscalationChain(t model.PersonaType) []model.PersonaType {
	var chain []model.PersonaType
	for {
		next := t.Downgrade()
		if next == "" {
			return chain
		}
		chain = append(chain, next)
		t = next
	}
}

// Decision is the retry manager's answer for one failed attempt.
type Decision struct {
	ShouldRetry       bool
	EnhancedPrompt    string
	SuggestedTemplate string
	RetryDelay        time.Duration
	EscalationLevel   int
	Reason            string
	Metadata          map[string]any
}

// ErrorPattern accumulates the failure shape of one request across retries.
type ErrorPattern struct {
	ErrorTypes     map[validation.ErrorType]bool
	Fields         map[string]bool
	Frequency      int
	LastOccurrence time.Time
	Severity       string // "normal", "elevated", "critical"
}

// RecurringReport summarizes whether a request keeps failing the same way.
type RecurringReport struct {
	HasRecurringErrors bool     `json:"hasRecurringErrors"`
	Frequency          int      `json:"frequency"`
	DominantTypes      []string `json:"dominantTypes,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// Manager owns the per-request error-pattern state. Safe for concurrent use;
// patterns are keyed by request id so concurrent requests never share a
// bucket.
type Manager struct {
	mu         sync.Mutex
	patterns   map[string]*ErrorPattern
	maxEntries int
}

// NewManager creates a retry manager with the default store bound.
func NewManager() *Manager {
	return &Manager{
		patterns:   make(map[string]*ErrorPattern),
		maxEntries: DefaultMaxEntries,
	}
}

// ShouldRetry analyzes a failed validation pass and returns a decision.
// currentAttempt is zero-based: the first failure arrives with attempt 0.
func (m *Manager) ShouldRetry(errs []validation.ValidationError, vctx *validation.Context, strategy validation.RetryStrategy, currentAttempt int) Decision {
	if currentAttempt >= strategy.MaxRetries {
		return Decision{ShouldRetry: false, Reason: "max retries exceeded"}
	}

	retryable := filterRetryable(errs, strategy)
	if len(retryable) == 0 {
		return Decision{ShouldRetry: false, Reason: "no retryable errors"}
	}

	m.recordPattern(vctx.RequestID, retryable)

	criticalCount := 0
	for _, verr := range retryable {
		if criticalTypes[verr.Type] {
			criticalCount++
		}
	}

	level := 0
	switch {
	case criticalCount >= 3:
		level = 2
	case criticalCount >= 1:
		level = 1
	}
	// Attempt count sets an escalation floor regardless of error content.
	switch {
	case currentAttempt >= 3 && level < 2:
		level = 2
	case currentAttempt >= 2 && level < 1:
		level = 1
	}

	suggested := suggestTemplateEscalation(vctx.PersonaType, level)

	delay := time.Duration(float64(strategy.RetryDelay) * math.Pow(strategy.BackoffMultiplier, float64(currentAttempt)))

	var enhanced string
	if strategy.EnhancePromptOnRetry {
		enhanced = buildEnhancedPrompt(retryable, vctx.PersonaType, currentAttempt)
	}

	log.Printf("[RetryManager] request=%s attempt=%d retryable=%d critical=%d level=%d delay=%v suggested=%q",
		vctx.RequestID, currentAttempt, len(retryable), criticalCount, level, delay, suggested)

	return Decision{
		ShouldRetry:       true,
		EnhancedPrompt:    enhanced,
		SuggestedTemplate: suggested,
		RetryDelay:        delay,
		EscalationLevel:   level,
		Reason:            fmt.Sprintf("%d retryable errors at attempt %d", len(retryable), currentAttempt),
		Metadata: map[string]any{
			"criticalErrors": criticalCount,
			"attempt":        currentAttempt,
		},
	}
}

// suggestTemplateEscalation returns the template id to fall back to, or ""
// when no escalation applies. Level 1 steps down one tier, level 2 jumps to
// the simplest tier in the chain. SIMPLE personas never escalate.
func suggestTemplateEscalation(t model.PersonaType, level int) string {
	chain := deEscalationChain(t)
	if level == 0 || len(chain) == 0 {
		return ""
	}
	target := chain[0]
	if level >= 2 {
		target = chain[len(chain)-1]
	}
	return validation.TemplateIDForType(target)
}

func filterRetryable(errs []validation.ValidationError, strategy validation.RetryStrategy) []validation.ValidationError {
	var out []validation.ValidationError
	for _, verr := range errs {
		if strategy.IsRetryable(verr.Type) {
			out = append(out, verr)
		}
	}
	return out
}

// recordPattern merges this attempt's errors into the request's accumulated
// pattern, evicting the oldest entry when the store is full.
func (m *Manager) recordPattern(requestID string, errs []validation.ValidationError) {
	if requestID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.patterns[requestID]
	if !exists {
		if len(m.patterns) >= m.maxEntries {
			m.evictOldestLocked()
		}
		p = &ErrorPattern{
			ErrorTypes: make(map[validation.ErrorType]bool),
			Fields:     make(map[string]bool),
			Severity:   "normal",
		}
		m.patterns[requestID] = p
	}

	criticalCount := 0
	for _, verr := range errs {
		p.ErrorTypes[verr.Type] = true
		if verr.Field != "" {
			p.Fields[verr.Field] = true
		}
		if criticalTypes[verr.Type] {
			criticalCount++
		}
	}
	p.Frequency++
	p.LastOccurrence = time.Now()

	switch {
	case p.Frequency >= 5 || criticalCount >= 3:
		p.Severity = "critical"
	case p.Frequency >= 3 || criticalCount >= 1:
		p.Severity = "elevated"
	}
}

// evictOldestLocked removes the entry with the oldest last occurrence.
// Caller must hold m.mu.
func (m *Manager) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, p := range m.patterns {
		if oldestKey == "" || p.LastOccurrence.Before(oldest) {
			oldestKey = key
			oldest = p.LastOccurrence
		}
	}
	if oldestKey != "" {
		delete(m.patterns, oldestKey)
	}
}

// DetectRecurringErrors reports whether the request's failures have repeated
// at least threshold times, with targeted recommendations keyed off the
// dominant error types.
func (m *Manager) DetectRecurringErrors(requestID string, threshold int) RecurringReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.patterns[requestID]
	if !exists {
		return RecurringReport{}
	}

	report := RecurringReport{
		HasRecurringErrors: p.Frequency >= threshold,
		Frequency:          p.Frequency,
	}
	if !report.HasRecurringErrors {
		return report
	}

	for t := range p.ErrorTypes {
		report.DominantTypes = append(report.DominantTypes, string(t))
	}
	sort.Strings(report.DominantTypes)

	if p.ErrorTypes[validation.ErrStructureInvalid] || p.ErrorTypes[validation.ErrRequiredFieldMissing] {
		report.Recommendations = append(report.Recommendations, "simplify the requested persona structure or switch to a simpler template")
	}
	if p.ErrorTypes[validation.ErrFormatInvalid] || p.ErrorTypes[validation.ErrTypeMismatch] {
		report.Recommendations = append(report.Recommendations, "tighten the output format instructions in the brief")
	}
	if p.ErrorTypes[validation.ErrBusinessRuleViolation] {
		report.Recommendations = append(report.Recommendations, "provide more business context (pain points, buying behavior) in the brief")
	}
	if p.ErrorTypes[validation.ErrCulturalDataInconsistent] {
		report.Recommendations = append(report.Recommendations, "review the cultural category constraints supplied with the request")
	}
	return report
}

// Cleanup evicts patterns older than maxAge and returns how many were
// removed.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, p := range m.patterns {
		if p.LastOccurrence.Before(cutoff) {
			delete(m.patterns, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[RetryManager] Cleanup evicted %d stale patterns", removed)
	}
	return removed
}

// StartSweeper evicts patterns older than maxAge every interval until the
// context is cancelled. Complements the size-based eviction in recordPattern.
func (m *Manager) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Cleanup(maxAge)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Size returns the number of tracked request patterns.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patterns)
}

// remediation text per error type, highest priority first. Field names and
// persona type are substituted in when building the enhanced prompt.
var remediations = []struct {
	errType validation.ErrorType
	text    string
}{
	{validation.ErrStructureInvalid, "Return strictly valid JSON matching the %s persona schema. Problem areas: %s."},
	{validation.ErrRequiredFieldMissing, "Every persona must include these fields, which were missing: %s."},
	{validation.ErrTypeMismatch, "Use the correct JSON types for: %s (numbers unquoted, arrays as lists)."},
	{validation.ErrValueOutOfRange, "Keep these values inside their allowed ranges: %s (age 18-80, income 0-1,000,000, experience 0-50)."},
	{validation.ErrFormatInvalid, "Fix the format of: %s (valid email addresses, ISO dates, non-empty arrays)."},
	{validation.ErrBusinessRuleViolation, "Strengthen the business detail for: %s (at least one pain point, concrete decision factors, measurable KPIs)."},
	{validation.ErrCulturalDataInconsistent, "Pick values for %s from the supplied category lists instead of inventing new ones."},
}

// buildEnhancedPrompt synthesizes remediation guidance from the distinct
// error types present, plus attempt-escalating meta guidance.
func buildEnhancedPrompt(errs []validation.ValidationError, personaType model.PersonaType, attempt int) string {
	fieldsByType := make(map[validation.ErrorType][]string)
	seen := make(map[string]bool)
	for _, verr := range errs {
		key := string(verr.Type) + ":" + verr.Field
		if seen[key] {
			continue
		}
		seen[key] = true
		field := verr.Field
		if field == "" {
			field = "persona"
		}
		fieldsByType[verr.Type] = append(fieldsByType[verr.Type], field)
	}

	var sb strings.Builder
	sb.WriteString("Fix the following issues from the previous attempt:\n")
	for _, r := range remediations {
		fields, present := fieldsByType[r.errType]
		if !present {
			continue
		}
		line := r.text
		if strings.Count(line, "%s") == 2 {
			line = fmt.Sprintf(line, personaType, strings.Join(fields, ", "))
		} else {
			line = fmt.Sprintf(line, strings.Join(fields, ", "))
		}
		sb.WriteString("- " + line + "\n")
	}

	if attempt >= 3 {
		sb.WriteString("CRITICAL: simplify the structure. Output only the required fields, nothing speculative.\n")
	} else if attempt >= 2 {
		sb.WriteString("Previous attempts failed validation. Follow the schema exactly.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
