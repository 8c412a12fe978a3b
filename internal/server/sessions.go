package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Sessions maps bearer tokens to user ids.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]string // token -> userID
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]string)}
}

// Issue creates a token for userID.
func (m *Sessions) Issue(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := uuid.NewString()
	m.tokens[token] = userID
	return token
}

// Resolve returns the user behind token.
func (m *Sessions) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.tokens[token]
	return userID, ok
}

// Revoke drops token.
func (m *Sessions) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

// Len returns the number of live tokens.
func (m *Sessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// limiter hands out one token bucket per key (user id).
type limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// newLimiter allows perMinute events per key and minute; 0 disables limiting.
func newLimiter(perMinute int) *limiter {
	l := &limiter{limiters: make(map[string]*rate.Limiter), rate: rate.Inf, burst: 1}
	if perMinute > 0 {
		l.rate = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
