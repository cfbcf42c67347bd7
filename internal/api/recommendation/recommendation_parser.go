package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// stripCodeFences removes the markdown fences models like to wrap payloads
// in, with or without a language marker.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}
	return strings.TrimSpace(response)
}

// sliceBetween cuts the substring from the first open delimiter to the last
// close delimiter, which drops any commentary around the payload.
func sliceBetween(s string, open, close byte) (string, bool) {
	first := strings.IndexByte(s, open)
	last := strings.LastIndexByte(s, close)
	if first == -1 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}

// parsePlaces decodes a completion response into places. The contract asks
// for a bare JSON array; an object wrapping the array under "places" is
// tolerated. Anything else is a malformed response.
func parsePlaces(response string) ([]types.RecommendedPlace, error) {
	cleaned := stripCodeFences(response)

	if payload, ok := sliceBetween(cleaned, '[', ']'); ok {
		var places []types.RecommendedPlace
		if err := json.Unmarshal([]byte(payload), &places); err == nil {
			return places, nil
		}
	}
	if payload, ok := sliceBetween(cleaned, '{', '}'); ok {
		var envelope struct {
			Places []types.RecommendedPlace `json:"places"`
		}
		if err := json.Unmarshal([]byte(payload), &envelope); err == nil && envelope.Places != nil {
			return envelope.Places, nil
		}
	}
	return nil, fmt.Errorf("%w: no decodable place list", types.ErrMalformedResponse)
}
