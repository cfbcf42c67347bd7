package types

import (
	"time"

	"github.com/google/uuid"
)

// Interaction kinds recorded in the assistant audit log.
const (
	InteractionKindProfile        = "profile"
	InteractionKindVerification   = "verification"
	InteractionKindRecommendation = "recommendation"
)

// AssistantInteraction is one prompt/response exchange with the generative
// backend, kept for audit and latency analysis. It is write-only: nothing in
// the recommendation flow ever reads it back.
type AssistantInteraction struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	Kind         string    `json:"kind"`
	Prompt       string    `json:"prompt"`
	ResponseText string    `json:"response_text"`
	ModelUsed    string    `json:"model_used"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
