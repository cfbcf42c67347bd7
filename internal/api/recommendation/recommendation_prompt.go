package recommendation

import (
	"fmt"
	"strings"

	generativeAI "github.com/FACorreiaa/go-place-recs/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

const (
	defaultTemperature = 0.5
	suggestionsPerPage = 8
)

// trendKeywords switch the web search capability on when they appear
// verbatim in the traveller's notes. Matching is case sensitive: a
// capitalised "New Orleans" is not a freshness request.
var trendKeywords = []string{
	"latest",
	"new",
	"current",
	"today",
	"tonight",
	"this week",
	"this weekend",
	"right now",
	"trending",
	"event",
	"festival",
	"exhibition",
	"pop-up",
	"open now",
	"seasonal",
}

func needsSearchCapability(req types.RecommendationRequest) bool {
	if req.IncludeReviews {
		return true
	}
	for _, keyword := range trendKeywords {
		if strings.Contains(req.AdditionalInfo, keyword) {
			return true
		}
	}
	return false
}

// BuildRequestParameters assembles one upstream recommendation call: model,
// capability switches and the final prompt with every conditional fragment.
// It performs no I/O and never mutates its inputs.
func BuildRequestParameters(profile types.TasteProfile, req types.RecommendationRequest, excludePlaces []string) types.RequestParameters {
	enableSearch := needsSearchCapability(req)

	var b strings.Builder
	b.WriteString(corePrompt(req))
	if enableSearch {
		b.WriteString(freshnessFragment)
	}
	if req.IncludeReviews {
		b.WriteString(reviewFragment)
	}
	b.WriteString(profileFragment(profile))
	if len(excludePlaces) > 0 {
		b.WriteString(exclusionFragment(excludePlaces))
	}
	b.WriteString(responseSchemaFragment(req.IncludeReviews))

	return types.RequestParameters{
		Model:          generativeAI.DefaultModel,
		Prompt:         b.String(),
		Temperature:    defaultTemperature,
		EnableLocation: true,
		EnableSearch:   enableSearch,
	}
}

func corePrompt(req types.RecommendationRequest) string {
	notes := strings.TrimSpace(req.AdditionalInfo)
	if notes == "" {
		notes = "none"
	}
	return fmt.Sprintf(`
        You are a local companion recommending places in '%s'.
        The traveller is visiting for: [%s].
        Additional notes from the traveller: %s
        Recommend %d places that fit this visit.
`, req.Destination, strings.Join(req.Purposes, ", "), notes, suggestionsPerPage)
}

const freshnessFragment = `
        Ground every suggestion with a web search so openings, closures,
        pop-ups and events reflect what is happening right now.
`

const reviewFragment = `
        For each place, find a link to recent traveller reviews and return
        it in the review_url field.
`

func profileFragment(profile types.TasteProfile) string {
	if len(profile.Tags) > 0 {
		return fmt.Sprintf(`
        The traveller's saved places suggest these tastes: [%s].
        %s
        Lean the recommendations towards these tastes without repeating
        places they clearly know already.
`, strings.Join(profile.Tags, ", "), profile.Description)
	}
	return fmt.Sprintf(`
        What is known about the traveller: %s
        Keep the recommendations broadly appealing.
`, profile.Description)
}

func exclusionFragment(excludePlaces []string) string {
	var b strings.Builder
	b.WriteString("\n        Already recommended earlier in this session:\n")
	for _, name := range excludePlaces {
		fmt.Fprintf(&b, "        - %s: do not recommend again\n", name)
	}
	return b.String()
}

func responseSchemaFragment(includeReviews bool) string {
	review := ""
	if includeReviews {
		review = `
                "review_url": "URL of recent reviews for this place",`
	}
	return fmt.Sprintf(`
        Return the response STRICTLY as a JSON array with one object per place:
        [
            {
                "place_name": "Name of the place",
                "description": "2-3 sentences on why this fits the visit",
                "map_url": "A Google Maps link for this place",
                "highlights": ["short highlight", "short highlight"],
                "latitude": <float>,
                "longitude": <float>,%s
                "distance": "Distance or travel time from the centre, if known"
            }
        ]
        Do not wrap the array in any other object and do not add commentary.
`, review)
}
