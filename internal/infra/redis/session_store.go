package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mechedu-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in process; Redis only carries a liveness marker per
// open session so operators can see attempts in progress across instances.
// The marker expires ttl after the last Put or Touch, so an idle session drops out.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.Quiz().ID, s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// Touch pushes the liveness marker's expiry out by ttl.
func (s *SessionStore) Touch(id string) {
	s.mu.RLock()
	_, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	_ = s.client.Expire(context.Background(), s.key(id), s.ttl).Err()
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
