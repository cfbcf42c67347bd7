package discover

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-place-recs/internal/types"
)

const (
	sessionTTL      = 24 * time.Hour
	cleanupInterval = 1 * time.Hour
)

// SessionStore keeps discovery sessions in memory with a TTL. An expired
// session is indistinguishable from one that never existed.
type SessionStore struct {
	sessions *cache.Cache
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: cache.New(sessionTTL, cleanupInterval),
	}
}

func (st *SessionStore) Put(session *types.DiscoverySession) {
	st.sessions.Set(session.ID.String(), session, cache.DefaultExpiration)
}

func (st *SessionStore) Get(id uuid.UUID) (*types.DiscoverySession, error) {
	v, found := st.sessions.Get(id.String())
	if !found {
		return nil, types.ErrSessionNotFound
	}
	return v.(*types.DiscoverySession), nil
}

func (st *SessionStore) Delete(id uuid.UUID) {
	st.sessions.Delete(id.String())
}
