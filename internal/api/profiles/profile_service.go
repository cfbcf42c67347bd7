package profiles

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
	"google.golang.org/genai"

	generativeAI "github.com/FACorreiaa/go-place-recs/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-recs/internal/api/interactions"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

const (
	// maxProfileNames caps how many place names feed one synthesis call.
	maxProfileNames    = 100
	profileTemperature = 0.2
)

// Ensure implementation satisfies the interface
var _ ProfileService = (*ProfileServiceImpl)(nil)

// ProfileService defines the business logic contract for taste profiles.
type ProfileService interface {
	Synthesize(ctx context.Context, sessionID uuid.UUID, names []string) (types.TasteProfile, error)
	Default() types.TasteProfile
}

// ProfileServiceImpl provides the implementation for ProfileService.
type ProfileServiceImpl struct {
	logger          *slog.Logger
	aiClient        generativeAI.Client
	interactionRepo interactions.Repository
}

// NewProfileService creates a new profile service instance.
func NewProfileService(aiClient generativeAI.Client, interactionRepo interactions.Repository, logger *slog.Logger) *ProfileServiceImpl {
	return &ProfileServiceImpl{
		logger:          logger,
		aiClient:        aiClient,
		interactionRepo: interactionRepo,
	}
}

// Default returns the generic profile used when a traveller skips the
// upload step.
func (s *ProfileServiceImpl) Default() types.TasteProfile {
	return types.TasteProfile{
		Description: "A traveller with no saved places history; assume broad, mainstream tastes.",
	}
}

// Synthesize turns a list of saved place names into a taste profile. At most
// maxProfileNames names are sent upstream; the rest are dropped.
func (s *ProfileServiceImpl) Synthesize(ctx context.Context, sessionID uuid.UUID, names []string) (types.TasteProfile, error) {
	ctx, span := otel.Tracer("ProfileService").Start(ctx, "Synthesize", trace.WithAttributes(
		attribute.Int("names.count", len(names)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Synthesize"), slog.String("session_id", sessionID.String()))

	if len(names) > maxProfileNames {
		names = names[:maxProfileNames]
	}

	prompt := profilePrompt(names)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](profileTemperature),
	}

	startTime := time.Now()
	response, err := s.aiClient.GenerateContent(ctx, generativeAI.DefaultModel, prompt, config)
	latency := time.Since(startTime)
	if err != nil {
		l.ErrorContext(ctx, "Profile synthesis call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Synthesis call failed")
		return types.TasteProfile{}, fmt.Errorf("%w: %v", types.ErrProfilingFailed, err)
	}

	s.recordInteraction(ctx, l, sessionID, prompt, response, latency)

	profile, err := parseProfile(response)
	if err != nil {
		l.WarnContext(ctx, "Profile response was unusable", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unusable profile response")
		return types.TasteProfile{}, err
	}

	l.InfoContext(ctx, "Taste profile synthesised",
		slog.Int("tags", len(profile.Tags)),
		slog.Int64("latency_ms", latency.Milliseconds()))
	span.SetStatus(codes.Ok, "Profile synthesised")
	return profile, nil
}

func (s *ProfileServiceImpl) recordInteraction(ctx context.Context, l *slog.Logger, sessionID uuid.UUID, prompt, response string, latency time.Duration) {
	interaction := types.AssistantInteraction{
		SessionID:    sessionID,
		Kind:         types.InteractionKindProfile,
		Prompt:       prompt,
		ResponseText: response,
		ModelUsed:    generativeAI.DefaultModel,
		LatencyMs:    latency.Milliseconds(),
	}
	if _, err := s.interactionRepo.SaveInteraction(ctx, interaction); err != nil {
		l.WarnContext(ctx, "Failed to save assistant interaction", slog.Any("error", err))
	}
}

func profilePrompt(names []string) string {
	return fmt.Sprintf(`
        These are places a traveller chose to save on their map:
        [%s]
        Infer what this collection says about their tastes when travelling.
        Return the response STRICTLY as a JSON object with:
        {
            "tags": ["4 to 8 short taste tags, e.g. specialty coffee, street food, brutalist architecture"],
            "description": "2-3 sentences describing this traveller's tastes."
        }
`, strings.Join(names, ", "))
}

// parseProfile decodes the synthesis response. A response with neither tags
// nor a description counts as a failure.
func parseProfile(response string) (types.TasteProfile, error) {
	jsonStr := cleanJSONResponse(response)

	var profile types.TasteProfile
	if err := json.Unmarshal([]byte(jsonStr), &profile); err != nil {
		return types.TasteProfile{}, fmt.Errorf("%w: %v", types.ErrProfilingFailed, err)
	}
	if len(profile.Tags) == 0 && strings.TrimSpace(profile.Description) == "" {
		return types.TasteProfile{}, fmt.Errorf("%w: empty profile", types.ErrProfilingFailed)
	}
	return profile, nil
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
