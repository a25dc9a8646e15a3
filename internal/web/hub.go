package web

import (
	"context"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

// Hub tracks the open sessions and hands each one the catalog once it is
// ready, including sessions that connect afterwards.
type Hub struct {
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	ready      chan *catalog.Store
	count      chan chan int
	done       chan struct{}
	store      *catalog.Store
}

// NewHub creates a hub. Run must be started before sessions register.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		ready:      make(chan *catalog.Store, 1),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run owns the session set until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case s := <-h.register:
			h.sessions[s] = true
			logging.SessionEvent("connect", len(h.sessions), "session_id", s.id)
			if h.store != nil {
				s.catalogReady(h.store)
			}

		case s := <-h.unregister:
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				logging.SessionEvent("disconnect", len(h.sessions), "session_id", s.id)
			}

		case store := <-h.ready:
			h.store = store
			for s := range h.sessions {
				s.catalogReady(store)
			}

		case reply := <-h.count:
			reply <- len(h.sessions)

		case <-ctx.Done():
			for s := range h.sessions {
				s.close()
			}
			logging.SessionEvent("shutdown", len(h.sessions))
			return
		}
	}
}

// Register adds a session. It returns false once the hub has stopped.
func (h *Hub) Register(s *Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a session.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// SetStore publishes the catalog to every current and future session.
func (h *Hub) SetStore(store *catalog.Store) {
	select {
	case h.ready <- store:
	case <-h.done:
	}
}

// Count returns the number of open sessions, or 0 once the hub has stopped.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
