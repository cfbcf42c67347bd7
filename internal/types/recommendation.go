package types

import "strings"

// RecommendationRequest is what the client asks for once a destination has
// been verified.
type RecommendationRequest struct {
	Destination    string   `json:"destination"`
	Purposes       []string `json:"purposes"`
	AdditionalInfo string   `json:"additional_info,omitempty"`
	IncludeReviews bool     `json:"include_reviews"`
}

// RequestParameters is the fully assembled upstream call description: the
// final prompt text plus the capability switches for the generative backend.
type RequestParameters struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	Temperature    float32 `json:"temperature"`
	EnableLocation bool    `json:"enable_location"`
	EnableSearch   bool    `json:"enable_search"`
}

// DestinationCheck is the outcome of verifying a free-text destination.
// Destination always holds the exact input string that was verified;
// Suggestions are tied to it and are discarded when the text changes.
type DestinationCheck struct {
	Valid         bool     `json:"valid"`
	Destination   string   `json:"destination"`
	CanonicalName string   `json:"canonical_name,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

type RecommendedPlace struct {
	Name        string   `json:"place_name"`
	Description string   `json:"description"`
	MapURL      string   `json:"map_url,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	ReviewURL   string   `json:"review_url,omitempty"`
	Distance    string   `json:"distance,omitempty"`
}

// NormalizedName is the comparison key used when deduplicating places.
func (p RecommendedPlace) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// ResultSet accumulates the places recommended during one session. Entries
// are only ever appended; earlier entries keep their position for the life
// of the set.
type ResultSet struct {
	Places []RecommendedPlace `json:"places"`
}

// Names returns the accumulated place names in presentation order.
func (rs ResultSet) Names() []string {
	names := make([]string, 0, len(rs.Places))
	for _, p := range rs.Places {
		names = append(names, p.Name)
	}
	return names
}
