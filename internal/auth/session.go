package auth

import (
	"sync"
	"time"
)

// Session is a signed-in moderator for one chat.
type Session struct {
	UserID     int64
	Username   string
	SignedInAt time.Time
}

// Listener receives the chat's session on every change; nil means signed out.
// Listeners must not call back into the hub.
type Listener func(*Session)

// SessionHub is the process-wide observer of session changes, keyed by chat.
// A new subscriber immediately receives the current state of its chat.
type SessionHub struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	listeners map[int64]map[uint64]Listener
	nextID    uint64

	// deliverMu keeps events for all chats in publish order.
	deliverMu sync.Mutex
}

// NewSessionHub creates an empty hub.
func NewSessionHub() *SessionHub {
	return &SessionHub{
		sessions:  make(map[int64]*Session),
		listeners: make(map[int64]map[uint64]Listener),
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Subscribe registers l for chatID and returns its deregistration handle.
// The handle may be called any number of times.
func (h *SessionHub) Subscribe(chatID int64, l Listener) func() {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.listeners[chatID] == nil {
		h.listeners[chatID] = make(map[uint64]Listener)
	}
	h.listeners[chatID][id] = l
	current := copySession(h.sessions[chatID])
	h.mu.Unlock()

	l(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[chatID], id)
			if len(h.listeners[chatID]) == 0 {
				delete(h.listeners, chatID)
			}
		})
	}
}

// Publish records the chat's session and notifies its listeners.
func (h *SessionHub) Publish(chatID int64, s *Session) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.Lock()
	if s == nil {
		delete(h.sessions, chatID)
	} else {
		h.sessions[chatID] = copySession(s)
	}
	targets := make([]Listener, 0, len(h.listeners[chatID]))
	for _, l := range h.listeners[chatID] {
		targets = append(targets, l)
	}
	h.mu.Unlock()

	for _, l := range targets {
		l(copySession(s))
	}
}

// Current returns the chat's session, or nil when signed out.
func (h *SessionHub) Current(chatID int64) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copySession(h.sessions[chatID])
}

// ListenerCount returns the number of registered listeners across all chats.
func (h *SessionHub) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ls := range h.listeners {
		n += len(ls)
	}
	return n
}
