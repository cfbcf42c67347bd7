package types

// ExportRecord is one raw entry from a saved-places export. Exports mix
// several historical shapes, so records stay untyped until normalization.
type ExportRecord map[string]any

// TasteProfile summarises what a traveller's saved places say about them.
// It is synthesised once per session and never mutated afterwards.
type TasteProfile struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}
