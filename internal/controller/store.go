package controller

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/metrics"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

// Store holds the live sessions, one controller per browser.
type Store struct {
	gw      gateway.Gateway
	bus     *service.EventBus
	opts    session.Options
	timeout time.Duration
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewStore creates a session store. Sessions idle for longer than ttl are
// dropped by Sweep; a zero ttl keeps them forever.
func NewStore(gw gateway.Gateway, bus *service.EventBus, opts session.Options, timeout, ttl time.Duration) *Store {
	return &Store{
		gw:       gw,
		bus:      bus,
		opts:     opts,
		timeout:  timeout,
		ttl:      ttl,
		sessions: make(map[string]*Controller),
	}
}

// Bus returns the event bus sessions publish on.
func (s *Store) Bus() *service.EventBus { return s.bus }

// Get returns the session with the given id.
func (s *Store) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[id]
	return c, ok
}

// GetOrCreate returns the session for id, or starts a new one with a fresh
// id when id is unknown. created reports whether a session was started.
func (s *Store) GetOrCreate(id string) (c *Controller, created bool) {
	s.mu.Lock()
	if c, ok := s.sessions[id]; ok && id != "" {
		s.mu.Unlock()
		return c, false
	}
	c = New(uuid.NewString(), s.gw, s.bus, s.opts, s.timeout)
	s.sessions[c.ID()] = c
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	slog.Info("session started", "session", c.ID())
	c.Start()
	return c, true
}

// List returns the live sessions ordered by id.
func (s *Store) List() []*Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Controller, 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Controller) int { return strings.Compare(a.id, b.id) })
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle since before now-ttl and returns how many.
// A session with an open event stream is never idle.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.sessions {
		if s.bus.Watching(id) {
			continue
		}
		if now.Sub(c.LastSeen()) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return n
}

// Run sweeps idle sessions until ctx is done.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				slog.Info("expired idle sessions", "count", n)
			}
		}
	}
}
