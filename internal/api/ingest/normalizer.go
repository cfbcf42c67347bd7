package ingest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// droppedPinPlaceholder is the junk title exports use for unnamed map pins.
const droppedPinPlaceholder = "dropped pin"

// nameRule is one step of the normalization chain. Rules run in slice order
// and the first rule yielding a non-empty trimmed name wins.
type nameRule struct {
	name    string
	extract func(props map[string]any) (string, bool)
}

var nameRules = []nameRule{
	{name: "location_name", extract: extractLocationName},
	{name: "title", extract: extractTitle},
	{name: "business_name", extract: extractBusinessName},
	{name: "maps_url", extract: extractFromMapsURL},
	{name: "address", extract: extractFromAddress},
}

// NormalizeRecord resolves a display name for one export record. It reports
// false for records that cannot yield a usable name: no properties container,
// the (0,0) coordinate sentinel, or no rule producing a non-empty value.
func NormalizeRecord(rec types.ExportRecord) (string, bool) {
	props, ok := propertiesOf(rec)
	if !ok {
		return "", false
	}
	if hasNullIslandCoordinates(rec, props) {
		return "", false
	}
	for _, rule := range nameRules {
		raw, ok := rule.extract(props)
		if !ok {
			continue
		}
		if name := strings.TrimSpace(raw); name != "" {
			return name, true
		}
	}
	return "", false
}

func propertiesOf(rec types.ExportRecord) (map[string]any, bool) {
	for _, key := range []string{"properties", "Properties"} {
		if m, ok := rec[key].(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

// hasNullIslandCoordinates detects the (0,0) sentinel some exporters write
// for records that never had a real fix. Coordinates live either in a
// GeoJSON geometry or in the Location sub-object, sometimes as strings.
func hasNullIslandCoordinates(rec types.ExportRecord, props map[string]any) bool {
	if geom, ok := rec["geometry"].(map[string]any); ok {
		if coords, ok := geom["coordinates"].([]any); ok && len(coords) >= 2 {
			lng, okLng := asFloat(coords[0])
			lat, okLat := asFloat(coords[1])
			if okLng && okLat {
				return lng == 0 && lat == 0
			}
		}
	}
	loc, ok := locationOf(props)
	if !ok {
		return false
	}
	coords := loc
	if geo, ok := loc["Geo Coordinates"].(map[string]any); ok {
		coords = geo
	}
	for _, pair := range [][2]string{{"Latitude", "Longitude"}, {"latitude", "longitude"}} {
		lat, okLat := asFloat(coords[pair[0]])
		lng, okLng := asFloat(coords[pair[1]])
		if okLat && okLng {
			return lat == 0 && lng == 0
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// locationOf finds the Location sub-object regardless of key casing.
func locationOf(props map[string]any) (map[string]any, bool) {
	for _, key := range []string{"Location", "location"} {
		if m, ok := props[key].(map[string]any); ok {
			return m, true
		}
	}
	for key, val := range props {
		if strings.EqualFold(key, "location") {
			if m, ok := val.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func isDroppedPin(s string) bool {
	return strings.ToLower(strings.TrimSpace(s)) == droppedPinPlaceholder
}

func extractLocationName(props map[string]any) (string, bool) {
	loc, ok := props["location"].(map[string]any)
	if !ok {
		return "", false
	}
	name, ok := loc["name"].(string)
	return name, ok
}

func extractTitle(props map[string]any) (string, bool) {
	title, ok := props["Title"].(string)
	if !ok || isDroppedPin(title) {
		return "", false
	}
	return title, true
}

func extractBusinessName(props map[string]any) (string, bool) {
	loc, ok := locationOf(props)
	if !ok {
		return "", false
	}
	if name, ok := loc["Business Name"].(string); ok && strings.TrimSpace(name) != "" {
		return name, true
	}
	name, ok := loc["name"].(string)
	return name, ok
}

func extractFromMapsURL(props map[string]any) (string, bool) {
	raw, ok := mapsURLOf(props)
	if !ok {
		return "", false
	}
	if name, ok := placeSegmentName(raw); ok {
		return name, true
	}
	return queryParamName(raw)
}

func mapsURLOf(props map[string]any) (string, bool) {
	for _, key := range []string{"google_maps_url", "Google Maps URL"} {
		if s, ok := props[key].(string); ok && s != "" {
			return s, true
		}
	}
	for key, val := range props {
		normalized := strings.ReplaceAll(strings.ToLower(key), " ", "_")
		if normalized == "google_maps_url" {
			if s, ok := val.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// placeSegmentName pulls the human-readable segment after /place/ out of a
// maps URL, e.g. .../place/Cafe%20Onion/@37.56,126.99 yields "Cafe Onion".
// Parse and escape failures report false so the chain can fall through.
func placeSegmentName(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	path := u.EscapedPath()
	idx := strings.Index(path, "/place/")
	if idx < 0 {
		return "", false
	}
	segment := path[idx+len("/place/"):]
	if end := strings.Index(segment, "/"); end >= 0 {
		segment = segment[:end]
	}
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(strings.ReplaceAll(decoded, "+", " "))
	if name == "" || isDroppedPin(name) {
		return "", false
	}
	return name, true
}

// queryParamName reads the q= parameter, which pin links fill with
// "Name,lat,lng"; everything before the first comma is the name. Bare
// coordinate pins carry no name at all.
func queryParamName(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	q := u.Query().Get("q")
	if q == "" {
		return "", false
	}
	name, _, _ := strings.Cut(q, ",")
	name = strings.TrimSpace(name)
	if name == "" || isDroppedPin(name) || isNumeric(name) {
		return "", false
	}
	return name, true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// extractFromAddress keeps the first two components of a postal address,
// enough to identify the spot without dragging the full string along.
func extractFromAddress(props map[string]any) (string, bool) {
	loc, ok := locationOf(props)
	if !ok {
		return "", false
	}
	var addr string
	for _, key := range []string{"Address", "address"} {
		if s, ok := loc[key].(string); ok && s != "" {
			addr = s
			break
		}
	}
	if addr == "" {
		return "", false
	}
	parts := strings.Split(addr, ",")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	kept := make([]string, 0, 2)
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, ", "), true
}
