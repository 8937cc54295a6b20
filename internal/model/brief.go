package model

// BriefFormData is the full structured brief shape submitted by the frontend.
// The legacy flow submits only the free-text Brief field.
type BriefFormData struct {
	Brief           string   `json:"brief"`
	PersonaType     string   `json:"personaType,omitempty"`
	PersonaCount    int      `json:"personaCount,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	TargetMarket    string   `json:"targetMarket,omitempty"`
	AgeRange        string   `json:"ageRange,omitempty"`
	BusinessContext string   `json:"businessContext,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	Language        string   `json:"language,omitempty"`
}
