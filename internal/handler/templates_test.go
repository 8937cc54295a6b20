package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personacraft/backend/internal/validation"
)

func templatesRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := validation.NewRegistry()
	require.NoError(t, validation.RegisterDefaults(registry))
	Configure(nil, registry, testConfig())

	r := gin.New()
	r.GET("/api/templates", HandleGetTemplates)
	r.GET("/api/templates/:id", HandleGetTemplate)
	return r
}

func TestHandleGetTemplates(t *testing.T) {
	r := templatesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summaries []TemplateSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, validation.TemplateSimpleID, summaries[0].ID)
	assert.Equal(t, "SIMPLE", summaries[0].PersonaType)
	assert.Equal(t, 2, summaries[0].RuleCount)
	assert.False(t, summaries[0].FallsBack)
	assert.True(t, summaries[2].FallsBack)
}

func TestHandleGetTemplateByID(t *testing.T) {
	r := templatesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/templates/"+validation.TemplateB2BID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary TemplateSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, validation.TemplateB2BID, summary.ID)
	assert.Equal(t, "B2B", summary.PersonaType)
}

func TestHandleGetTemplateNotFound(t *testing.T) {
	r := templatesRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/templates/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
