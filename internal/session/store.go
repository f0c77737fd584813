package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/campus-assistant/backend/internal/language"
)

type State struct {
	ID           string
	Language     language.Language
	MessageCount int
	StartedAt    time.Time
	LastSeen     time.Time
}

// Store keeps short-lived per-session state in memory. Sessions expire after
// the configured idle TTL.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		cache: cache.New(ttl, 10*time.Minute),
		now:   time.Now,
	}
}

// Touch records activity on a session and reports whether this is its first
// message.
func (s *Store) Touch(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	state, found := s.get(id)
	if !found {
		state = State{ID: id, StartedAt: now}
	}
	state.MessageCount++
	state.LastSeen = now
	s.cache.Set(id, state, cache.DefaultExpiration)

	return state, !found
}

func (s *Store) SetLanguage(id string, lang language.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found := s.get(id)
	if !found {
		state = State{ID: id, StartedAt: s.now()}
	}
	state.Language = lang
	s.cache.Set(id, state, cache.DefaultExpiration)
}

func (s *Store) Get(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Count() int {
	return s.cache.ItemCount()
}

func (s *Store) get(id string) (State, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(State), true
	}
	return State{}, false
}
