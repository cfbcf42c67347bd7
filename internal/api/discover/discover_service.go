package discover

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-place-recs/app/observability/metrics"
	"github.com/FACorreiaa/go-place-recs/internal/api/destination"
	"github.com/FACorreiaa/go-place-recs/internal/api/ingest"
	"github.com/FACorreiaa/go-place-recs/internal/api/profiles"
	"github.com/FACorreiaa/go-place-recs/internal/api/recommendation"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// Ensure implementation satisfies the interface
var _ DiscoverService = (*DiscoverServiceImpl)(nil)

// DiscoverService defines the business logic contract for the discovery
// session lifecycle: upload, verify, request, accumulate, start over.
type DiscoverService interface {
	StartSession(ctx context.Context, export io.Reader, skipProfile bool) (types.DiscoverySession, error)
	VerifyDestination(ctx context.Context, sessionID uuid.UUID, dest string) (types.DestinationCheck, error)
	Submit(ctx context.Context, sessionID uuid.UUID, req types.RecommendationRequest) (types.DiscoverySession, error)
	More(ctx context.Context, sessionID uuid.UUID) (types.DiscoverySession, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (types.DiscoverySession, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

// DiscoverServiceImpl provides the implementation for DiscoverService.
type DiscoverServiceImpl struct {
	logger                *slog.Logger
	store                 *SessionStore
	ingestService         ingest.IngestService
	profileService        profiles.ProfileService
	destinationService    destination.DestinationService
	recommendationService recommendation.RecommendationService
}

// NewDiscoverService creates a new discover service instance.
func NewDiscoverService(
	store *SessionStore,
	ingestService ingest.IngestService,
	profileService profiles.ProfileService,
	destinationService destination.DestinationService,
	recommendationService recommendation.RecommendationService,
	logger *slog.Logger,
) *DiscoverServiceImpl {
	return &DiscoverServiceImpl{
		logger:                logger,
		store:                 store,
		ingestService:         ingestService,
		profileService:        profileService,
		destinationService:    destinationService,
		recommendationService: recommendationService,
	}
}

// StartSession creates a session from a saved-places export. With skipProfile
// set the export is ignored and the session starts on the generic profile.
func (s *DiscoverServiceImpl) StartSession(ctx context.Context, export io.Reader, skipProfile bool) (types.DiscoverySession, error) {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "StartSession", trace.WithAttributes(
		attribute.Bool("skip_profile", skipProfile),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "StartSession"))

	sessionID := uuid.New()

	var profile types.TasteProfile
	sourceCount := 0
	if skipProfile {
		profile = s.profileService.Default()
	} else {
		names, total, err := s.ingestService.ParseExport(ctx, export)
		if err != nil {
			l.WarnContext(ctx, "Export could not be used", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Export unusable")
			return types.DiscoverySession{}, err
		}
		sourceCount = total

		profile, err = s.profileService.Synthesize(ctx, sessionID, names)
		if err != nil {
			l.ErrorContext(ctx, "Profile synthesis failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Profiling failed")
			return types.DiscoverySession{}, err
		}
	}

	session := &types.DiscoverySession{
		ID:               sessionID,
		Profile:          profile,
		SourcePlaceCount: sourceCount,
		State:            types.SessionStateNoRequest,
		CreatedAt:        time.Now(),
	}
	s.store.Put(session)

	l.InfoContext(ctx, "Session started",
		slog.String("sessionID", sessionID.String()),
		slog.Int("source_places", sourceCount),
		slog.Bool("skip_profile", skipProfile))
	span.SetAttributes(attribute.String("session.id", sessionID.String()))
	span.SetStatus(codes.Ok, "Session started")
	return session.View(), nil
}

// VerifyDestination checks a destination against the session and stores the
// outcome. A check that comes back not valid is still a successful call.
func (s *DiscoverServiceImpl) VerifyDestination(ctx context.Context, sessionID uuid.UUID, dest string) (types.DestinationCheck, error) {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "VerifyDestination", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "VerifyDestination"), slog.String("sessionID", sessionID.String()))

	if strings.TrimSpace(dest) == "" {
		err := &types.ValidationError{Field: "destination", Reason: "must not be empty"}
		span.SetStatus(codes.Error, "Empty destination")
		return types.DestinationCheck{}, err
	}

	session, err := s.store.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return types.DestinationCheck{}, err
	}

	check, err := s.destinationService.Verify(ctx, sessionID, dest)
	if err != nil {
		l.ErrorContext(ctx, "Destination verification failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Verification failed")
		return types.DestinationCheck{}, err
	}

	session.SetVerified(&check)

	l.InfoContext(ctx, "Destination verified",
		slog.String("destination", dest),
		slog.Bool("valid", check.Valid))
	span.SetStatus(codes.Ok, "Destination verified")
	return check, nil
}

// Submit runs the first recommendation round for a session. It replaces any
// previous request and result set.
func (s *DiscoverServiceImpl) Submit(ctx context.Context, sessionID uuid.UUID, req types.RecommendationRequest) (types.DiscoverySession, error) {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("destination", req.Destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Submit"), slog.String("sessionID", sessionID.String()))

	session, err := s.store.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return types.DiscoverySession{}, err
	}

	v := session.View()
	if err := validateRequest(v, req); err != nil {
		l.WarnContext(ctx, "Request rejected", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return types.DiscoverySession{}, err
	}

	if !session.BeginRequest() {
		span.SetStatus(codes.Error, "Session busy")
		return types.DiscoverySession{}, types.ErrSessionBusy
	}
	defer session.EndRequest()

	params := recommendation.BuildRequestParameters(v.Profile, req, nil)

	start := time.Now()
	places, err := s.recommendationService.Fetch(ctx, sessionID, params)
	if err != nil {
		l.ErrorContext(ctx, "Recommendation round failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fetch failed")
		return types.DiscoverySession{}, err
	}

	session.CommitRequest(req, places)

	m := metrics.Get()
	m.RecommendationRequestsTotal.Add(ctx, 1)
	m.RecommendationDurationSecond.Record(ctx, time.Since(start).Seconds())

	l.InfoContext(ctx, "Recommendations fetched",
		slog.String("destination", req.Destination),
		slog.Int("places", len(places)))
	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "Recommendations fetched")
	return session.View(), nil
}

// More runs another round for the active request, excluding everything the
// session has already accumulated. A failed round leaves the result set as it
// was and the session ready for a retry.
func (s *DiscoverServiceImpl) More(ctx context.Context, sessionID uuid.UUID) (types.DiscoverySession, error) {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "More", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "More"), slog.String("sessionID", sessionID.String()))

	session, err := s.store.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return types.DiscoverySession{}, err
	}

	v := session.View()
	if v.Request == nil {
		err := &types.ValidationError{Field: "request", Reason: "no active recommendation request"}
		span.SetStatus(codes.Error, "No active request")
		return types.DiscoverySession{}, err
	}

	if !session.BeginRequest() {
		span.SetStatus(codes.Error, "Session busy")
		return types.DiscoverySession{}, types.ErrSessionBusy
	}
	defer session.EndRequest()

	exclude := v.Results.Names()
	params := recommendation.BuildRequestParameters(v.Profile, *v.Request, exclude)

	start := time.Now()
	places, err := s.recommendationService.Fetch(ctx, sessionID, params)
	if err != nil {
		l.ErrorContext(ctx, "Follow-up round failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fetch failed")
		return types.DiscoverySession{}, err
	}

	merged := recommendation.MergeResults(v.Results.Places, places)
	session.CommitMore(merged)

	m := metrics.Get()
	m.RecommendationRequestsTotal.Add(ctx, 1)
	m.RecommendationDurationSecond.Record(ctx, time.Since(start).Seconds())

	l.InfoContext(ctx, "Follow-up round merged",
		slog.Int("excluded", len(exclude)),
		slog.Int("fetched", len(places)),
		slog.Int("accumulated", len(merged)))
	span.SetAttributes(
		attribute.Int("places.excluded", len(exclude)),
		attribute.Int("places.accumulated", len(merged)),
	)
	span.SetStatus(codes.Ok, "Follow-up round merged")
	return session.View(), nil
}

// Snapshot returns a read-only copy of the session.
func (s *DiscoverServiceImpl) Snapshot(ctx context.Context, sessionID uuid.UUID) (types.DiscoverySession, error) {
	_, span := otel.Tracer("DiscoverService").Start(ctx, "Snapshot", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()

	session, err := s.store.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return types.DiscoverySession{}, err
	}
	span.SetStatus(codes.Ok, "Snapshot taken")
	return session.View(), nil
}

// Reset discards the session entirely. The next upload starts from scratch.
func (s *DiscoverServiceImpl) Reset(ctx context.Context, sessionID uuid.UUID) error {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "Reset", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Reset"), slog.String("sessionID", sessionID.String()))

	if _, err := s.store.Get(sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		return err
	}
	s.store.Delete(sessionID)

	l.InfoContext(ctx, "Session reset")
	span.SetStatus(codes.Ok, "Session reset")
	return nil
}

// validateRequest enforces the ordering rules for a submitted request: a
// non-empty destination that has been verified for this session, and at least
// one purpose.
func validateRequest(v types.DiscoverySession, req types.RecommendationRequest) error {
	if strings.TrimSpace(req.Destination) == "" {
		return &types.ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if len(req.Purposes) == 0 {
		return &types.ValidationError{Field: "purposes", Reason: "select at least one purpose"}
	}
	if v.Verified == nil || !v.Verified.Valid || v.Verified.Destination != req.Destination {
		return &types.ValidationError{Field: "destination", Reason: "must be verified before requesting recommendations"}
	}
	return nil
}
