package discover

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-place-recs/internal/api"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// Ensure implementation satisfies the interface
var _ Handler = (*HandlerImpl)(nil)

// Handler defines the HTTP surface for discovery sessions.
type Handler interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
	VerifyDestination(w http.ResponseWriter, r *http.Request)
	RequestRecommendations(w http.ResponseWriter, r *http.Request)
	MoreRecommendations(w http.ResponseWriter, r *http.Request)
}

// HandlerImpl provides the implementation for Handler.
type HandlerImpl struct {
	discoverService DiscoverService
	logger          *slog.Logger
}

// NewHandlerImpl creates a new discover handler instance.
func NewHandlerImpl(discoverService DiscoverService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		discoverService: discoverService,
		logger:          logger,
	}
}

type createSessionRequest struct {
	SkipProfile bool `json:"skip_profile"`
}

type verifyDestinationRequest struct {
	Destination string `json:"destination"`
}

// CreateSession godoc
// @Summary      Start a discovery session
// @Description  Uploads a saved-places export and builds a taste profile from it. Send a JSON body with skip_profile instead to start without one.
// @Tags         Discover
// @Accept       multipart/form-data
// @Produce      json
// @Param        export formData file false "Saved-places export (JSON array or features object)"
// @Success      201 {object} types.DiscoverySession "Session Created"
// @Failure      400 {object} types.Response "Invalid Export"
// @Failure      422 {object} types.Response "No Usable Places"
// @Failure      502 {object} types.Response "Profiling Failed"
// @Router       /discover/sessions [post]
func (h *HandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateSession"))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var params createSessionRequest
		if err := api.DecodeJSONBody(w, r, &params); err != nil {
			l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if !params.SkipProfile {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Upload an export file or set skip_profile")
			return
		}

		session, err := h.discoverService.StartSession(ctx, nil, true)
		if err != nil {
			h.writeServiceError(ctx, w, r, l, err)
			return
		}
		api.WriteJSONResponse(w, r, http.StatusCreated, session)
		return
	}

	file, _, err := r.FormFile("export")
	if err != nil {
		l.WarnContext(ctx, "Export file missing from upload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing export file")
		return
	}
	defer file.Close()

	session, err := h.discoverService.StartSession(ctx, file, false)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, session)
}

// GetSession godoc
// @Summary      Get session state
// @Description  Returns the profile, verified destination, active request and accumulated results for a session.
// @Tags         Discover
// @Produce      json
// @Param        sessionID path string true "Session ID"
// @Success      200 {object} types.DiscoverySession "Session State"
// @Failure      400 {object} types.Response "Invalid Session ID"
// @Failure      404 {object} types.Response "Session Not Found"
// @Router       /discover/sessions/{sessionID} [get]
func (h *HandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetSession"))

	sessionID, ok := h.sessionIDFromPath(w, r, l)
	if !ok {
		return
	}

	session, err := h.discoverService.Snapshot(ctx, sessionID)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

// DeleteSession godoc
// @Summary      Start over
// @Description  Discards the session and everything it accumulated.
// @Tags         Discover
// @Produce      json
// @Param        sessionID path string true "Session ID"
// @Success      204 "Session Discarded"
// @Failure      400 {object} types.Response "Invalid Session ID"
// @Failure      404 {object} types.Response "Session Not Found"
// @Router       /discover/sessions/{sessionID} [delete]
func (h *HandlerImpl) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteSession"))

	sessionID, ok := h.sessionIDFromPath(w, r, l)
	if !ok {
		return
	}

	if err := h.discoverService.Reset(ctx, sessionID); err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// VerifyDestination godoc
// @Summary      Verify a destination
// @Description  Checks whether the destination is somewhere recommendations can be made for. An invalid destination is a normal answer, not an error.
// @Tags         Discover
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "Session ID"
// @Param        destination body verifyDestinationRequest true "Destination to verify"
// @Success      200 {object} types.DestinationCheck "Verification Outcome"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Session Not Found"
// @Failure      502 {object} types.Response "Verification Failed"
// @Router       /discover/sessions/{sessionID}/destination [post]
func (h *HandlerImpl) VerifyDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "VerifyDestination"))

	sessionID, ok := h.sessionIDFromPath(w, r, l)
	if !ok {
		return
	}

	var params verifyDestinationRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	check, err := h.discoverService.VerifyDestination(ctx, sessionID, params.Destination)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, check)
}

// RequestRecommendations godoc
// @Summary      Request recommendations
// @Description  Runs the first recommendation round for a verified destination. Replaces any previous request and its results.
// @Tags         Discover
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "Session ID"
// @Param        request body types.RecommendationRequest true "Recommendation Request"
// @Success      200 {object} types.DiscoverySession "Session With Results"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      404 {object} types.Response "Session Not Found"
// @Failure      409 {object} types.Response "Request In Flight"
// @Failure      502 {object} types.Response "Assistant Failed"
// @Router       /discover/sessions/{sessionID}/recommendations [post]
func (h *HandlerImpl) RequestRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "RequestRecommendations"))

	sessionID, ok := h.sessionIDFromPath(w, r, l)
	if !ok {
		return
	}

	var req types.RecommendationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	session, err := h.discoverService.Submit(ctx, sessionID, req)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

// MoreRecommendations godoc
// @Summary      Request more recommendations
// @Description  Runs another round for the active request, excluding every place the session already holds.
// @Tags         Discover
// @Produce      json
// @Param        sessionID path string true "Session ID"
// @Success      200 {object} types.DiscoverySession "Session With Accumulated Results"
// @Failure      400 {object} types.Response "No Active Request"
// @Failure      404 {object} types.Response "Session Not Found"
// @Failure      409 {object} types.Response "Request In Flight"
// @Failure      502 {object} types.Response "Assistant Failed"
// @Router       /discover/sessions/{sessionID}/recommendations/more [post]
func (h *HandlerImpl) MoreRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "MoreRecommendations"))

	sessionID, ok := h.sessionIDFromPath(w, r, l)
	if !ok {
		return
	}

	session, err := h.discoverService.More(ctx, sessionID)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

func (h *HandlerImpl) sessionIDFromPath(w http.ResponseWriter, r *http.Request, l *slog.Logger) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.WarnContext(r.Context(), "Invalid session ID", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return sessionID, true
}

// writeServiceError maps service errors onto HTTP statuses. Validation
// problems are the client's fault, assistant failures are the upstream's.
func (h *HandlerImpl) writeServiceError(ctx context.Context, w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	var validationErr *types.ValidationError

	switch {
	case errors.As(err, &validationErr):
		l.WarnContext(ctx, "Request rejected", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, types.ErrInvalidExportFormat):
		l.WarnContext(ctx, "Export rejected", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrSessionNotFound):
		l.WarnContext(ctx, "Session not found", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
	case errors.Is(err, types.ErrSessionBusy):
		l.WarnContext(ctx, "Session busy", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusConflict, "A recommendation request is already in flight for this session")
	case errors.Is(err, types.ErrNoUsablePlaces):
		l.WarnContext(ctx, "Export had no usable places", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnprocessableEntity, "Export contained no usable places")
	case errors.Is(err, types.ErrVerificationFailed),
		errors.Is(err, types.ErrProfilingFailed),
		errors.Is(err, types.ErrMalformedResponse):
		l.ErrorContext(ctx, "Assistant call failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "The assistant could not complete the request")
	default:
		l.ErrorContext(ctx, "Unexpected error", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
