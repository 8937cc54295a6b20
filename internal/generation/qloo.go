package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"personacraft/backend/internal/model"
)

// QlooClient enriches personas with cultural affinity data from the Qloo
// taste API. Failures here are non-fatal by contract: the orchestrator keeps
// the unenriched personas.
type QlooClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewQlooClient creates a cultural-enrichment client.
func NewQlooClient(baseURL, apiKey string) *QlooClient {
	return &QlooClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type qlooRequest struct {
	Interests []string `json:"interests"`
	Location  string   `json:"location,omitempty"`
	AgeRange  string   `json:"age_range,omitempty"`
}

type qlooResponse struct {
	Music       []string `json:"music"`
	Brands      []string `json:"brands"`
	Restaurants []string `json:"restaurants"`
	Movies      []string `json:"movies"`
	Travel      []string `json:"travel"`
}

// EnrichPersonas fetches a cultural profile per persona. One persona's
// enrichment failure fails the whole call; the caller decides whether to
// keep the originals.
func (c *QlooClient) EnrichPersonas(ctx context.Context, personas []model.Persona) ([]model.Persona, error) {
	enriched := make([]model.Persona, len(personas))
	copy(enriched, personas)

	for i := range enriched {
		profile, err := c.fetchProfile(ctx, &enriched[i])
		if err != nil {
			return nil, fmt.Errorf("cultural enrichment failed for persona %d: %w", i, err)
		}
		enriched[i].Cultural = profile
	}
	log.Printf("[Qloo] Enriched %d personas", len(enriched))
	return enriched, nil
}

func (c *QlooClient) fetchProfile(ctx context.Context, p *model.Persona) (*model.CulturalProfile, error) {
	payload, err := json.Marshal(qlooRequest{
		Interests: p.Psychographics.Interests,
		Location:  p.Demographics.Location,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/insights", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qloo API returned %d: %s", resp.StatusCode, body)
	}

	var parsed qlooResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode qloo response: %w", err)
	}

	return &model.CulturalProfile{
		Music:       parsed.Music,
		Brands:      parsed.Brands,
		Restaurants: parsed.Restaurants,
		Movies:      parsed.Movies,
		Travel:      parsed.Travel,
	}, nil
}
