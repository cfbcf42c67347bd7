package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-place-recs/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-place-recs/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-recs/internal/api/interactions"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// Ensure implementation satisfies the interface
var _ RecommendationService = (*RecommendationServiceImpl)(nil)

// RecommendationService defines the business logic contract for fetching one
// round of place recommendations.
type RecommendationService interface {
	Fetch(ctx context.Context, sessionID uuid.UUID, params types.RequestParameters) ([]types.RecommendedPlace, error)
}

// RecommendationServiceImpl provides the implementation for RecommendationService.
type RecommendationServiceImpl struct {
	logger          *slog.Logger
	aiClient        generativeAI.Client
	interactionRepo interactions.Repository
}

// NewRecommendationService creates a new recommendation service instance.
func NewRecommendationService(aiClient generativeAI.Client, interactionRepo interactions.Repository, logger *slog.Logger) *RecommendationServiceImpl {
	return &RecommendationServiceImpl{
		logger:          logger,
		aiClient:        aiClient,
		interactionRepo: interactionRepo,
	}
}

// MergeResults appends the places of a new round onto the accumulated set.
// Earlier entries keep their positions; incoming places whose case-normalized
// name is already present are dropped, as are duplicates within the new round.
func MergeResults(previous, incoming []types.RecommendedPlace) []types.RecommendedPlace {
	merged := make([]types.RecommendedPlace, 0, len(previous)+len(incoming))
	seen := make(map[string]struct{}, len(previous)+len(incoming))
	for _, place := range previous {
		merged = append(merged, place)
		seen[place.NormalizedName()] = struct{}{}
	}
	for _, place := range incoming {
		key := place.NormalizedName()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, place)
	}
	return merged
}

// Fetch executes one completion round with the capabilities selected in
// params and parses the response into places. Every exchange is written to
// the audit log regardless of parse outcome.
func (s *RecommendationServiceImpl) Fetch(ctx context.Context, sessionID uuid.UUID, params types.RequestParameters) ([]types.RecommendedPlace, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.Bool("capability.location", params.EnableLocation),
		attribute.Bool("capability.search", params.EnableSearch),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Fetch"), slog.String("session_id", sessionID.String()))

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](params.Temperature),
	}
	if params.EnableLocation {
		config.Tools = append(config.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
	}
	if params.EnableSearch {
		config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}

	startTime := time.Now()
	response, err := s.aiClient.GenerateContent(ctx, params.Model, params.Prompt, config)
	latency := time.Since(startTime)

	m := metrics.Get()
	m.AssistantLatencySeconds.Record(ctx, latency.Seconds())

	if err != nil {
		l.ErrorContext(ctx, "Completion call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion call failed")
		return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
	}

	s.recordInteraction(ctx, l, sessionID, params, response, latency)

	places, err := parsePlaces(response)
	if err != nil {
		l.WarnContext(ctx, "Completion response had no usable payload",
			slog.Any("error", err), slog.Int("response_len", len(response)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Malformed completion response")
		return nil, err
	}

	l.InfoContext(ctx, "Recommendations fetched",
		slog.Int("places", len(places)),
		slog.Int64("latency_ms", latency.Milliseconds()))
	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "Recommendations fetched")
	return places, nil
}

// recordInteraction writes the exchange to the audit log. A failed audit
// write is logged and swallowed; it never fails the recommendation itself.
func (s *RecommendationServiceImpl) recordInteraction(ctx context.Context, l *slog.Logger, sessionID uuid.UUID, params types.RequestParameters, response string, latency time.Duration) {
	interaction := types.AssistantInteraction{
		SessionID:    sessionID,
		Kind:         types.InteractionKindRecommendation,
		Prompt:       params.Prompt,
		ResponseText: response,
		ModelUsed:    params.Model,
		LatencyMs:    latency.Milliseconds(),
	}
	if _, err := s.interactionRepo.SaveInteraction(ctx, interaction); err != nil {
		l.WarnContext(ctx, "Failed to save assistant interaction", slog.Any("error", err))
	}
}
