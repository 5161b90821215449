package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long an untouched session is kept in memory.
const DefaultTTL = 2 * time.Hour

// Store keeps sessions in memory and evicts the ones not used for a TTL.
// Sessions are never persisted.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store. A non-positive ttl uses DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(id string, _ interface{}) {
		log.Debug().Str("sessionId", id).Msg("Session evicted")
	})
	return &Store{cache: c, ttl: ttl}
}

// Create registers a new empty session with a random ID.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString())
	s.cache.Set(sess.ID(), sess, cache.DefaultExpiration)
	log.Debug().Str("sessionId", sess.ID()).Msg("Session created")
	return sess
}

// Get returns a session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	sess := x.(*Session)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// TTL returns the idle lifetime of a session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
