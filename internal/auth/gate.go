package auth

import (
	"sync"
	"sync/atomic"
)

// Gate tracks whether one chat is signed in, for the lifetime of one screen mount.
type Gate struct {
	hub    *SessionHub
	chatID int64

	mu            sync.Mutex
	unsubscribe   func()
	authenticated atomic.Bool
}

// NewGate creates a detached gate for chatID.
func NewGate(hub *SessionHub, chatID int64) *Gate {
	return &Gate{hub: hub, chatID: chatID}
}

// Attach registers the gate's single listener. Attaching twice is a no-op.
func (g *Gate) Attach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe != nil {
		return
	}
	g.unsubscribe = g.hub.Subscribe(g.chatID, func(s *Session) {
		g.authenticated.Store(s != nil)
	})
}

// Detach deregisters the listener. Detaching a detached gate is a no-op.
func (g *Gate) Detach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe == nil {
		return
	}
	g.unsubscribe()
	g.unsubscribe = nil
}

// Attached reports whether the listener is registered.
func (g *Gate) Attached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unsubscribe != nil
}

// IsAuthenticated reflects the most recent session event seen while attached.
func (g *Gate) IsAuthenticated() bool {
	return g.authenticated.Load()
}
