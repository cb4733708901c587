package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds live sessions. Sessions idle for longer than the TTL, or
// pushed out by newer ones once the registry is full, are closed.
type Registry struct {
	lru *expirable.LRU[string, *Session]
}

// NewRegistry creates a registry of at most size sessions.
func NewRegistry(size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = 1000
	}
	onEvict := func(_ string, s *Session) { s.close() }
	return &Registry{lru: expirable.NewLRU[string, *Session](size, onEvict, ttl)}
}

// Add assigns s a fresh ID and stores it.
func (r *Registry) Add(s *Session) {
	s.ID = uuid.NewString()
	r.lru.Add(s.ID, s)
}

// Get returns the session and restarts its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.lru.Get(id)
	if !ok {
		return nil, false
	}
	r.lru.Add(id, s)
	return s, true
}

// Remove closes and drops the session.
func (r *Registry) Remove(id string) bool {
	return r.lru.Remove(id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.lru.Len()
}

// RegisterMetrics exposes the live session count on reg.
func (r *Registry) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "image_gateway",
		Name:      "sessions_active",
		Help:      "Number of live upload sessions.",
	}, func() float64 { return float64(r.Len()) }))
}
