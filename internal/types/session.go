package types

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionStateNoRequest    SessionState = "no_request"
	SessionStateRequested    SessionState = "requested"
	SessionStateAccumulating SessionState = "accumulating"
)

// DiscoverySession carries everything one client accumulates between upload
// and start-over: the immutable taste profile, the verified destination, the
// active request and the append-only result set.
type DiscoverySession struct {
	ID               uuid.UUID              `json:"id"`
	Profile          TasteProfile           `json:"profile"`
	SourcePlaceCount int                    `json:"source_place_count"`
	Verified         *DestinationCheck      `json:"verified_destination,omitempty"`
	Request          *RecommendationRequest `json:"request,omitempty"`
	Results          ResultSet              `json:"results"`
	State            SessionState           `json:"state"`
	CreatedAt        time.Time              `json:"created_at"`

	mu   sync.Mutex
	busy bool
}

// BeginRequest marks the session busy. It reports false when another
// recommendation call is already in flight.
func (s *DiscoverySession) BeginRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// EndRequest clears the busy flag.
func (s *DiscoverySession) EndRequest() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// SetVerified replaces the stored destination check. Passing a check for a
// new destination string implicitly invalidates the previous one.
func (s *DiscoverySession) SetVerified(check *DestinationCheck) {
	s.mu.Lock()
	s.Verified = check
	s.mu.Unlock()
}

// CommitRequest installs a fresh request and replaces the result set.
func (s *DiscoverySession) CommitRequest(req RecommendationRequest, places []RecommendedPlace) {
	s.mu.Lock()
	s.Request = &req
	s.Results = ResultSet{Places: places}
	s.State = SessionStateRequested
	s.mu.Unlock()
}

// CommitMore replaces the accumulated places after a merge round.
func (s *DiscoverySession) CommitMore(places []RecommendedPlace) {
	s.mu.Lock()
	s.Results = ResultSet{Places: places}
	s.State = SessionStateAccumulating
	s.mu.Unlock()
}

// View returns a copy that is safe to read while other calls mutate the
// session.
func (s *DiscoverySession) View() DiscoverySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := DiscoverySession{
		ID:               s.ID,
		Profile:          s.Profile,
		SourcePlaceCount: s.SourcePlaceCount,
		Results:          ResultSet{Places: append([]RecommendedPlace(nil), s.Results.Places...)},
		State:            s.State,
		CreatedAt:        s.CreatedAt,
	}
	if s.Verified != nil {
		v := *s.Verified
		cp.Verified = &v
	}
	if s.Request != nil {
		r := *s.Request
		cp.Request = &r
	}
	return cp
}
