package redis

import (
	"context"
	"sync"
	"time"

	"knotquiz/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions live in a local map; their timers and broadcast stay in process.
//   - Redis holds a liveness marker per session with a sliding TTL. A session
//     whose marker expired is treated as abandoned and dropped.
//   - When Redis cannot be reached the local map is authoritative. A marker
//     that was never written is written on the next Get instead of counting
//     as expired.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
	marked   map[string]bool
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
		marked:   make(map[string]bool),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	err := s.client.Set(context.Background(), s.key(session.ID()), session.Version(), s.ttl).Err()
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.marked[session.ID()] = s.marked[session.ID()] || err == nil
	s.mu.Unlock()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	marked := s.marked[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	alive, err := s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Result()
	switch {
	case err != nil || alive:
	case marked:
		s.Delete(sessionID)
		return nil, false
	default:
		if s.client.Set(context.Background(), s.key(sessionID), session.Version(), s.ttl).Err() == nil {
			s.mu.Lock()
			s.marked[sessionID] = true
			s.mu.Unlock()
		}
	}
	return session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.marked, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
