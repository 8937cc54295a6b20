package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"personacraft/backend/internal/validation"
)

// TemplateSummary is the read-only catalog view of a validation template.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	PersonaType string `json:"personaType"`
	RuleCount   int    `json:"ruleCount"`
	MaxRetries  int    `json:"maxRetries"`
	FallsBack   bool   `json:"fallsBack"`
}

func summarize(t *validation.Template) TemplateSummary {
	return TemplateSummary{
		ID:          t.ID,
		Name:        t.Name,
		Version:     t.Version,
		PersonaType: string(t.PersonaType),
		RuleCount:   len(t.Rules),
		MaxRetries:  t.Fallback.MaxRetries,
		FallsBack:   t.Fallback.FallbackAfterMaxRetries,
	}
}

// HandleGetTemplates serves GET /api/templates.
func HandleGetTemplates(c *gin.Context) {
	mu.RLock()
	registry := registryRef
	mu.RUnlock()

	if registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Templates not loaded"})
		return
	}

	templates := registry.All()
	summaries := make([]TemplateSummary, len(templates))
	for i, t := range templates {
		summaries[i] = summarize(t)
	}
	c.JSON(http.StatusOK, summaries)
}

// HandleGetTemplate serves GET /api/templates/:id.
func HandleGetTemplate(c *gin.Context) {
	mu.RLock()
	registry := registryRef
	mu.RUnlock()

	if registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Templates not loaded"})
		return
	}

	t := registry.GetByID(c.Param("id"))
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, summarize(t))
}
