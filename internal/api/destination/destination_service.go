package destination

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-place-recs/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-place-recs/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-recs/internal/api/interactions"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

const verifyTemperature = 0.1

// Ensure implementation satisfies the interface
var _ DestinationService = (*DestinationServiceImpl)(nil)

// DestinationService defines the business logic contract for destination
// verification.
type DestinationService interface {
	Verify(ctx context.Context, sessionID uuid.UUID, destination string) (types.DestinationCheck, error)
}

// DestinationServiceImpl provides the implementation for DestinationService.
// Concurrent verifications of the same destination within one session are
// collapsed into a single upstream call.
type DestinationServiceImpl struct {
	logger          *slog.Logger
	aiClient        generativeAI.Client
	interactionRepo interactions.Repository
	group           singleflight.Group
}

// NewDestinationService creates a new destination service instance.
func NewDestinationService(aiClient generativeAI.Client, interactionRepo interactions.Repository, logger *slog.Logger) *DestinationServiceImpl {
	return &DestinationServiceImpl{
		logger:          logger,
		aiClient:        aiClient,
		interactionRepo: interactionRepo,
	}
}

// Verify checks whether the free-text input denotes a real, reachable
// destination. The returned check always carries the exact input string; a
// negative answer is a successful call, not an error.
func (s *DestinationServiceImpl) Verify(ctx context.Context, sessionID uuid.UUID, destination string) (types.DestinationCheck, error) {
	ctx, span := otel.Tracer("DestinationService").Start(ctx, "Verify", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("destination.input", destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Verify"), slog.String("session_id", sessionID.String()))

	key := sessionID.String() + "|" + destination
	result, err, shared := s.group.Do(key, func() (any, error) {
		return s.verifyUpstream(ctx, l, sessionID, destination)
	})
	if shared {
		l.DebugContext(ctx, "Verification collapsed into an in-flight call",
			slog.String("destination", destination))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Verification failed")
		return types.DestinationCheck{}, err
	}

	check := result.(types.DestinationCheck)
	metrics.Get().VerificationRequestsTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("destination.valid", check.Valid))
	span.SetStatus(codes.Ok, "Verification completed")
	return check, nil
}

func (s *DestinationServiceImpl) verifyUpstream(ctx context.Context, l *slog.Logger, sessionID uuid.UUID, destination string) (types.DestinationCheck, error) {
	prompt := verifyPrompt(destination)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](verifyTemperature),
		Tools:       []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
	}

	startTime := time.Now()
	response, err := s.aiClient.GenerateContent(ctx, generativeAI.DefaultModel, prompt, config)
	latency := time.Since(startTime)
	if err != nil {
		l.ErrorContext(ctx, "Verification call failed", slog.Any("error", err))
		return types.DestinationCheck{}, fmt.Errorf("%w: %v", types.ErrVerificationFailed, err)
	}

	s.recordInteraction(ctx, l, sessionID, prompt, response, latency)

	check, err := parseCheck(response)
	if err != nil {
		l.WarnContext(ctx, "Verification response was unusable", slog.Any("error", err))
		return types.DestinationCheck{}, err
	}

	// The check is keyed to the exact input, whatever the model corrected.
	check.Destination = destination

	l.InfoContext(ctx, "Destination verified",
		slog.String("destination", destination),
		slog.Bool("valid", check.Valid),
		slog.Int64("latency_ms", latency.Milliseconds()))
	return check, nil
}

func (s *DestinationServiceImpl) recordInteraction(ctx context.Context, l *slog.Logger, sessionID uuid.UUID, prompt, response string, latency time.Duration) {
	interaction := types.AssistantInteraction{
		SessionID:    sessionID,
		Kind:         types.InteractionKindVerification,
		Prompt:       prompt,
		ResponseText: response,
		ModelUsed:    generativeAI.DefaultModel,
		LatencyMs:    latency.Milliseconds(),
	}
	if _, err := s.interactionRepo.SaveInteraction(ctx, interaction); err != nil {
		l.WarnContext(ctx, "Failed to save assistant interaction", slog.Any("error", err))
	}
}

func verifyPrompt(destination string) string {
	return fmt.Sprintf(`
        A traveller typed this as their trip destination: '%s'.
        Decide whether it names a real place a person can travel to, precise
        enough to recommend places in (a city, town, island, district or
        similar; not a country-sized region, not gibberish).
        Return the response STRICTLY as a JSON object with:
        {
            "valid": <true or false>,
            "canonical_name": "The destination's commonly used full name",
            "suggestions": ["3-5 short ideas of what this destination is known for"],
            "reason": "One sentence explaining the decision"
        }
        When valid is false, leave suggestions empty and explain why in reason.
`, destination)
}

// parseCheck decodes the verification response. Responses with no JSON
// object are a verification failure, not a malformed-recommendation case.
func parseCheck(response string) (types.DestinationCheck, error) {
	jsonStr := cleanJSONResponse(response)

	var check types.DestinationCheck
	if err := json.Unmarshal([]byte(jsonStr), &check); err != nil {
		return types.DestinationCheck{}, fmt.Errorf("%w: %v", types.ErrVerificationFailed, err)
	}
	return check, nil
}

func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}
	response = strings.TrimSpace(response)

	firstBrace := strings.Index(response, "{")
	lastBrace := strings.LastIndex(response, "}")
	if firstBrace == -1 || lastBrace <= firstBrace {
		return response
	}
	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}
