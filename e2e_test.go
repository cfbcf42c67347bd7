package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/genai"

	appMiddleware "github.com/FACorreiaa/go-place-recs/app/middleware"
	"github.com/FACorreiaa/go-place-recs/internal/api/destination"
	"github.com/FACorreiaa/go-place-recs/internal/api/discover"
	"github.com/FACorreiaa/go-place-recs/internal/api/ingest"
	"github.com/FACorreiaa/go-place-recs/internal/api/profiles"
	"github.com/FACorreiaa/go-place-recs/internal/api/recommendation"
	api "github.com/FACorreiaa/go-place-recs/internal/router"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// E2ETestSuite exercises complete traveller workflows over HTTP against the
// real router, handler and services. Only the generative backend and the
// audit log are substituted.
type E2ETestSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	logger    *slog.Logger
	assistant *scriptedAssistant
	audit     *memoryAuditLog
	handler   *discover.HandlerImpl
}

// scriptedAssistant stands in for the generative backend. It routes each
// prompt to a canned response by recognising which exchange it belongs to
// and records every prompt and config it sees.
type scriptedAssistant struct {
	mu      sync.Mutex
	prompts []string
	configs []*genai.GenerateContentConfig

	profileResponse string
	profileErr      error
	verifyResponse  string
	verifyErr       error

	recommendResponses []string
	recommendErr       error
	recommendCalls     int
	recommendGate      chan struct{}
}

func (a *scriptedAssistant) GenerateContent(_ context.Context, _ string, prompt string, config *genai.GenerateContentConfig) (string, error) {
	a.mu.Lock()
	a.prompts = append(a.prompts, prompt)
	a.configs = append(a.configs, config)
	gate := a.recommendGate
	a.mu.Unlock()

	switch {
	case strings.Contains(prompt, "chose to save"):
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.profileResponse, a.profileErr

	case strings.Contains(prompt, "trip destination"):
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.verifyResponse, a.verifyErr

	default:
		if gate != nil {
			<-gate
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.recommendErr != nil {
			return "", a.recommendErr
		}
		idx := a.recommendCalls
		if idx >= len(a.recommendResponses) {
			idx = len(a.recommendResponses) - 1
		}
		a.recommendCalls++
		return a.recommendResponses[idx], nil
	}
}

// reset restores the happy-path script between tests.
func (a *scriptedAssistant) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts = nil
	a.configs = nil
	a.profileErr = nil
	a.verifyErr = nil
	a.recommendErr = nil
	a.recommendCalls = 0
	a.recommendGate = nil

	a.profileResponse = `{
		"tags": ["specialty coffee", "street food", "independent galleries", "markets"],
		"description": "Seeks out food markets, third-wave cafes and small galleries over headline sights."
	}`
	a.verifyResponse = `{
		"valid": true,
		"canonical_name": "Lisbon, Portugal",
		"suggestions": ["pastel de nata", "fado houses", "miradouros"],
		"reason": "Lisbon is a major city and easy to recommend places in."
	}`
	a.recommendResponses = []string{
		`[
			{"place_name": "Time Out Market", "description": "Food hall gathering the city's best-known kitchens under one roof.", "map_url": "https://maps.google.com/?q=Time+Out+Market", "highlights": ["food hall", "local chefs"], "latitude": 38.707, "longitude": -9.146, "distance": "10 min walk"},
			{"place_name": "Jerónimos Monastery", "description": "Manueline monastery and the city's grandest piece of architecture.", "map_url": "https://maps.google.com/?q=Jeronimos+Monastery", "highlights": ["architecture"], "latitude": 38.697, "longitude": -9.206, "distance": "tram 15E"},
			{"place_name": "LX Factory", "description": "Converted industrial complex full of studios, shops and cafes.", "map_url": "https://maps.google.com/?q=LX+Factory", "highlights": ["galleries", "coffee"], "latitude": 38.703, "longitude": -9.178, "distance": "15 min by tram"}
		]`,
		`[
			{"place_name": "time out market", "description": "Duplicate entry that must be dropped on merge.", "latitude": 38.707, "longitude": -9.146},
			{"place_name": "Feira da Ladra", "description": "Twice-weekly flea market sprawling behind the National Pantheon.", "map_url": "https://maps.google.com/?q=Feira+da+Ladra", "highlights": ["flea market"], "latitude": 38.715, "longitude": -9.124, "distance": "20 min walk"},
			{"place_name": "Pavilhão Chinês", "description": "Bar stacked floor to ceiling with a century of curiosities.", "map_url": "https://maps.google.com/?q=Pavilhao+Chines", "highlights": ["cocktails"], "latitude": 38.715, "longitude": -9.148, "distance": "5 min walk"}
		]`,
	}
}

func (a *scriptedAssistant) setProfileErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profileErr = err
}

func (a *scriptedAssistant) setVerifyErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.verifyErr = err
}

func (a *scriptedAssistant) setRecommendResponses(responses ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recommendResponses = responses
	a.recommendCalls = 0
}

func (a *scriptedAssistant) setRecommendGate(gate chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recommendGate = gate
}

func (a *scriptedAssistant) promptCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.prompts)
}

func (a *scriptedAssistant) lastPrompt() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.prompts) == 0 {
		return ""
	}
	return a.prompts[len(a.prompts)-1]
}

func (a *scriptedAssistant) lastConfig() *genai.GenerateContentConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.configs) == 0 {
		return nil
	}
	return a.configs[len(a.configs)-1]
}

// memoryAuditLog collects assistant interactions in memory instead of
// Postgres.
type memoryAuditLog struct {
	mu    sync.Mutex
	saved []types.AssistantInteraction
}

func (r *memoryAuditLog) SaveInteraction(_ context.Context, interaction types.AssistantInteraction) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, interaction)
	return uuid.New(), nil
}

func (r *memoryAuditLog) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = nil
}

func (r *memoryAuditLog) kindCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, interaction := range r.saved {
		counts[interaction.Kind]++
	}
	return counts
}

// SetupSuite builds the full service stack once and serves it over httptest.
func (suite *E2ETestSuite) SetupSuite() {
	suite.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	suite.assistant = &scriptedAssistant{}
	suite.audit = &memoryAuditLog{}

	store := discover.NewSessionStore()
	ingestService := ingest.NewIngestService(suite.logger)
	profileService := profiles.NewProfileService(suite.assistant, suite.audit, suite.logger)
	destinationService := destination.NewDestinationService(suite.assistant, suite.audit, suite.logger)
	recommendationService := recommendation.NewRecommendationService(suite.assistant, suite.audit, suite.logger)
	discoverService := discover.NewDiscoverService(store, ingestService, profileService, destinationService, recommendationService, suite.logger)
	suite.handler = discover.NewHandlerImpl(discoverService, suite.logger)

	router := api.SetupRouter(&api.Config{
		DiscoverHandler: suite.handler,
	})

	suite.server = httptest.NewServer(router)
	suite.baseURL = suite.server.URL
	suite.client = &http.Client{Timeout: 30 * time.Second}
}

// TearDownSuite cleans up after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
}

// SetupTest restores the happy-path script so tests cannot leak state into
// each other.
func (suite *E2ETestSuite) SetupTest() {
	suite.assistant.reset()
	suite.audit.reset()
}

// sampleExport is a saved-places export covering every normalization path:
// a location.name record, a plain Title, a (0,0) sentinel, a dropped pin
// rescued from its maps URL, and a coordinate-only pin nothing can rescue.
func sampleExport() []byte {
	return []byte(`[
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [126.99, 37.56]}, "properties": {"location": {"name": "Cafe Onion"}}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [126.97, 37.55]}, "properties": {"Title": "Gwangjang Market", "Location": {"Business Name": "Gwangjang Market"}}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"Title": "Ghost Pin"}},
		{"type": "Feature", "properties": {"Title": "Dropped Pin", "google_maps_url": "https://www.google.com/maps/place/Teum+Gallery/@37.57,126.98,17z"}},
		{"type": "Feature", "properties": {"Title": "Dropped pin", "google_maps_url": "http://maps.google.com/?q=48.8566,2.3522"}}
	]`)
}

// makeRequest sends a JSON request to the test server.
func (suite *E2ETestSuite) makeRequest(method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return suite.client.Do(req)
}

// uploadExport posts an export file as multipart form data.
func (suite *E2ETestSuite) uploadExport(payload []byte) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("export", "saved_places.json")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, suite.baseURL+"/api/v1/discover/sessions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return suite.client.Do(req)
}

// startSession uploads the sample export and returns the created session.
func (suite *E2ETestSuite) startSession(t *testing.T) types.DiscoverySession {
	resp, err := suite.uploadExport(sampleExport())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session types.DiscoverySession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	return session
}

func sessionPath(id uuid.UUID, parts ...string) string {
	p := "/api/v1/discover/sessions/" + id.String()
	if len(parts) > 0 {
		p += "/" + strings.Join(parts, "/")
	}
	return p
}

func placeNames(places []types.RecommendedPlace) []string {
	names := make([]string, 0, len(places))
	for _, place := range places {
		names = append(names, place.Name)
	}
	return names
}

// TestFullDiscoveryWorkflow walks the whole journey: upload, verify, first
// round, load more with dedup, snapshot, start over.
func (suite *E2ETestSuite) TestFullDiscoveryWorkflow() {
	t := suite.T()

	t.Log("Step 1: Upload a saved-places export")
	session := suite.startSession(t)
	assert.Equal(t, types.SessionStateNoRequest, session.State)
	assert.Equal(t, 5, session.SourcePlaceCount)
	assert.NotEmpty(t, session.Profile.Tags)
	assert.NotEmpty(t, session.Profile.Description)
	assert.Contains(t, suite.assistant.lastPrompt(), "Cafe Onion")
	assert.Contains(t, suite.assistant.lastPrompt(), "Teum Gallery")
	assert.NotContains(t, suite.assistant.lastPrompt(), "Ghost Pin")

	t.Log("Step 2: Verify the destination")
	resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var check types.DestinationCheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	assert.True(t, check.Valid)
	assert.Equal(t, "Lisbon", check.Destination)
	assert.Equal(t, "Lisbon, Portugal", check.CanonicalName)
	assert.NotEmpty(t, check.Suggestions)

	t.Log("Step 3: Request the first recommendation round")
	request := types.RecommendationRequest{
		Destination: "Lisbon",
		Purposes:    []string{"food", "architecture"},
	}
	resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, types.SessionStateRequested, session.State)
	require.Len(t, session.Results.Places, 3)
	assert.Equal(t, "Time Out Market", session.Results.Places[0].Name)
	assert.Contains(t, suite.assistant.lastPrompt(), "specialty coffee")
	assert.NotContains(t, suite.assistant.lastPrompt(), "do not recommend again")

	t.Log("Step 4: Load more and check the dedup merge")
	resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations", "more"), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, types.SessionStateAccumulating, session.State)
	require.Len(t, session.Results.Places, 5)

	names := placeNames(session.Results.Places)
	assert.Equal(t, []string{"Time Out Market", "Jerónimos Monastery", "LX Factory", "Feira da Ladra", "Pavilhão Chinês"}, names)

	morePrompt := suite.assistant.lastPrompt()
	assert.Contains(t, morePrompt, "- Time Out Market: do not recommend again")
	assert.Contains(t, morePrompt, "- LX Factory: do not recommend again")

	t.Log("Step 5: Snapshot the session")
	resp, err = suite.makeRequest(http.MethodGet, sessionPath(session.ID), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot types.DiscoverySession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, types.SessionStateAccumulating, snapshot.State)
	assert.Len(t, snapshot.Results.Places, 5)
	require.NotNil(t, snapshot.Request)
	assert.Equal(t, "Lisbon", snapshot.Request.Destination)

	t.Log("Step 6: Check the audit log saw every exchange")
	counts := suite.audit.kindCounts()
	assert.Equal(t, 1, counts[types.InteractionKindProfile])
	assert.Equal(t, 1, counts[types.InteractionKindVerification])
	assert.Equal(t, 2, counts[types.InteractionKindRecommendation])

	t.Log("Step 7: Start over")
	resp, err = suite.makeRequest(http.MethodDelete, sessionPath(session.ID), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = suite.makeRequest(http.MethodGet, sessionPath(session.ID), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestSkipProfileSession starts without an export and still gets a full
// workflow on the generic profile.
func (suite *E2ETestSuite) TestSkipProfileSession() {
	t := suite.T()

	resp, err := suite.makeRequest(http.MethodPost, "/api/v1/discover/sessions", map[string]bool{"skip_profile": true})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session types.DiscoverySession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Empty(t, session.Profile.Tags)
	assert.NotEmpty(t, session.Profile.Description)
	assert.Equal(t, 0, session.SourcePlaceCount)
	assert.Zero(t, suite.assistant.promptCount(), "skipping the profile must not call the assistant")

	resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"nightlife"}}
	resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Len(t, session.Results.Places, 3)
	assert.Contains(t, suite.assistant.lastPrompt(), "no saved places history")
}

// TestExportRejections covers the upload failure modes.
func (suite *E2ETestSuite) TestExportRejections() {
	t := suite.T()

	t.Run("not JSON at all", func(t *testing.T) {
		resp, err := suite.uploadExport([]byte("this is not json"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("object without a features array", func(t *testing.T) {
		resp, err := suite.uploadExport([]byte(`{"saved": []}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no usable records", func(t *testing.T) {
		payload := []byte(`[
			{"type": "Feature", "geometry": {"coordinates": [0, 0]}, "properties": {"Title": "Null Island"}},
			{"type": "Feature", "properties": {"Title": "Dropped Pin"}}
		]`)
		resp, err := suite.uploadExport(payload)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("no file and no skip_profile", func(t *testing.T) {
		resp, err := suite.makeRequest(http.MethodPost, "/api/v1/discover/sessions", map[string]bool{"skip_profile": false})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty body", func(t *testing.T) {
		resp, err := suite.makeRequest(http.MethodPost, "/api/v1/discover/sessions", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// TestRequestOrderingRules checks that the orchestrator refuses requests
// made out of order.
func (suite *E2ETestSuite) TestRequestOrderingRules() {
	t := suite.T()
	session := suite.startSession(t)

	t.Run("recommendations before verification", func(t *testing.T) {
		request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("more before any request", func(t *testing.T) {
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations", "more"), nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty destination", func(t *testing.T) {
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "   "})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	// Verified from here on.
	resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("no purposes", func(t *testing.T) {
		request := types.RecommendationRequest{Destination: "Lisbon"}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("destination differs from the verified one", func(t *testing.T) {
		request := types.RecommendationRequest{Destination: "Porto", Purposes: []string{"food"}}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// TestAssistantFailureMapping checks that upstream failures surface as 502
// and leave the session intact for a retry.
func (suite *E2ETestSuite) TestAssistantFailureMapping() {
	t := suite.T()

	t.Run("profile synthesis fails", func(t *testing.T) {
		suite.assistant.setProfileErr(context.DeadlineExceeded)
		defer suite.assistant.setProfileErr(nil)

		resp, err := suite.uploadExport(sampleExport())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	session := suite.startSession(t)

	t.Run("verification fails", func(t *testing.T) {
		suite.assistant.setVerifyErr(context.DeadlineExceeded)
		defer suite.assistant.setVerifyErr(nil)

		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("malformed recommendation payload", func(t *testing.T) {
		suite.assistant.setRecommendResponses("Sorry, I could not find anything.")

		request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		// The failed round must not have touched the session.
		resp, err = suite.makeRequest(http.MethodGet, sessionPath(session.ID), nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var snapshot types.DiscoverySession
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
		assert.Equal(t, types.SessionStateNoRequest, snapshot.State)
		assert.Empty(t, snapshot.Results.Places)
	})

	t.Run("retry succeeds after the upstream recovers", func(t *testing.T) {
		suite.assistant.reset()

		request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var after types.DiscoverySession
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
		assert.Equal(t, types.SessionStateRequested, after.State)
		assert.Len(t, after.Results.Places, 3)
	})
}

// TestUnknownSessionRouting checks 404s for missing sessions and 400s for
// unparseable IDs on every session route.
func (suite *E2ETestSuite) TestUnknownSessionRouting() {
	t := suite.T()

	resp, err := suite.makeRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	missing := uuid.New()
	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, sessionPath(missing), nil},
		{http.MethodDelete, sessionPath(missing), nil},
		{http.MethodPost, sessionPath(missing, "destination"), map[string]string{"destination": "Lisbon"}},
		{http.MethodPost, sessionPath(missing, "recommendations"), types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}},
		{http.MethodPost, sessionPath(missing, "recommendations", "more"), nil},
	}
	for _, route := range routes {
		resp, err := suite.makeRequest(route.method, route.path, route.body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s should 404", route.method, route.path)
	}

	resp, err = suite.makeRequest(http.MethodGet, "/api/v1/discover/sessions/not-a-uuid", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestOverlappingRequestsRejected holds one round open inside the assistant
// and checks that a second round on the same session is turned away.
func (suite *E2ETestSuite) TestOverlappingRequestsRejected() {
	t := suite.T()
	session := suite.startSession(t)

	resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": "Lisbon"})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gate := make(chan struct{})
	suite.assistant.setRecommendGate(gate)

	before := suite.assistant.promptCount()
	firstDone := make(chan int, 1)
	go func() {
		request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		if err != nil {
			firstDone <- 0
			return
		}
		resp.Body.Close()
		firstDone <- resp.StatusCode
	}()

	// Wait until the first round is parked inside the assistant call.
	require.Eventually(t, func() bool {
		return suite.assistant.promptCount() > before
	}, 2*time.Second, 5*time.Millisecond)

	request := types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}}
	resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(gate)
	select {
	case status := <-firstDone:
		assert.Equal(t, http.StatusOK, status, "the held round should complete normally")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for the held round to finish")
	}
}

// TestSearchCapabilitySelection checks which tools each round carries: maps
// always, web search only for freshness wording or review requests.
func (suite *E2ETestSuite) TestSearchCapabilitySelection() {
	t := suite.T()

	toolNames := func(config *genai.GenerateContentConfig) (maps, search bool) {
		require.NotNil(t, config)
		for _, tool := range config.Tools {
			if tool.GoogleMaps != nil {
				maps = true
			}
			if tool.GoogleSearch != nil {
				search = true
			}
		}
		return maps, search
	}

	run := func(t *testing.T, request types.RecommendationRequest) *genai.GenerateContentConfig {
		session := suite.startSession(t)
		resp, err := suite.makeRequest(http.MethodPost, sessionPath(session.ID, "destination"), map[string]string{"destination": request.Destination})
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = suite.makeRequest(http.MethodPost, sessionPath(session.ID, "recommendations"), request)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return suite.assistant.lastConfig()
	}

	t.Run("plain request uses maps only", func(t *testing.T) {
		config := run(t, types.RecommendationRequest{Destination: "Lisbon", Purposes: []string{"food"}})
		maps, search := toolNames(config)
		assert.True(t, maps)
		assert.False(t, search)
	})

	t.Run("freshness wording turns search on", func(t *testing.T) {
		config := run(t, types.RecommendationRequest{
			Destination:    "Lisbon",
			Purposes:       []string{"nightlife"},
			AdditionalInfo: "what is open now near the river",
		})
		maps, search := toolNames(config)
		assert.True(t, maps)
		assert.True(t, search)
	})

	t.Run("review request turns search on", func(t *testing.T) {
		config := run(t, types.RecommendationRequest{
			Destination:    "Lisbon",
			Purposes:       []string{"food"},
			IncludeReviews: true,
		})
		maps, search := toolNames(config)
		assert.True(t, maps)
		assert.True(t, search)
		assert.Contains(t, suite.assistant.lastPrompt(), "review_url")
	})
}

// TestBearerAuthE2E runs the same handler behind the authenticated router
// variant.
func (suite *E2ETestSuite) TestBearerAuthE2E() {
	t := suite.T()
	t.Setenv("JWT_SECRET_KEY", "e2e-test-secret")

	router := api.SetupRouter(&api.Config{
		DiscoverHandler:        suite.handler,
		AuthenticateMiddleware: appMiddleware.Authenticate,
		AuthEnabled:            true,
	})
	server := httptest.NewServer(router)
	defer server.Close()

	body := bytes.NewBufferString(`{"skip_profile": true}`)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/discover/sessions", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "missing token should be rejected")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &appMiddleware.Claims{
		UserID: uuid.NewString(),
		Scope:  "discover",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("e2e-test-secret"))
	require.NoError(t, err)

	body = bytes.NewBufferString(`{"skip_profile": true}`)
	req, err = http.NewRequest(http.MethodPost, server.URL+"/api/v1/discover/sessions", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err = suite.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "valid token should pass")

	req, err = http.NewRequest(http.MethodGet, server.URL+"/ping", nil)
	require.NoError(t, err)
	resp2, err := suite.client.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode, "the health check stays open")
}

// TestRateLimitE2E runs the handler behind a router with a tiny rate budget.
func (suite *E2ETestSuite) TestRateLimitE2E() {
	t := suite.T()

	router := api.SetupRouter(&api.Config{
		DiscoverHandler: suite.handler,
		RateLimit:       2,
		RateWindow:      time.Minute,
	})
	server := httptest.NewServer(router)
	defer server.Close()

	path := server.URL + "/api/v1/discover/sessions/" + uuid.NewString()
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := suite.client.Get(path)
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, http.StatusNotFound, statuses[0])
	assert.Equal(t, http.StatusNotFound, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
}

// TestE2E runs the complete end-to-end test suite
func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	suite.Run(t, new(E2ETestSuite))
}
