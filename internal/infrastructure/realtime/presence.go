package realtime

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long a typing flag survives without a new
// keystroke event before it is auto-cleared.
const DefaultTypingIdle = 3 * time.Second

// TypingState is the ephemeral presence record for one user in one
// conversation. It is never persisted.
type TypingState struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type typingEntry struct {
	state TypingState
	timer *time.Timer
}

// Presence tracks who is typing per conversation. Each "typing" event arms a
// per-entry idle timer; a later event reschedules it (debounce), and expiry
// removes the entry and notifies the onExpire callback so the transport can
// broadcast the implicit stop. Safe for concurrent use.
type Presence struct {
	mu       sync.Mutex
	idle     time.Duration
	rooms    map[string]map[string]*typingEntry // conversationID -> userID -> entry
	onExpire func(conversationID string, state TypingState)
	closed   bool
}

// NewPresence constructs a Presence registry. onExpire may be nil. A
// non-positive idle falls back to DefaultTypingIdle.
func NewPresence(idle time.Duration, onExpire func(string, TypingState)) *Presence {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &Presence{
		idle:     idle,
		rooms:    make(map[string]map[string]*typingEntry),
		onExpire: onExpire,
	}
}

// SetTyping records or clears the typing flag for the user. Setting it true
// (re)arms the idle timer; setting it false removes the entry immediately.
func (p *Presence) SetTyping(conversationID string, state TypingState, typing bool) {
	if conversationID == "" || state.UserID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if !typing {
		p.removeLocked(conversationID, state.UserID)
		return
	}

	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	room := p.rooms[conversationID]
	if room == nil {
		room = make(map[string]*typingEntry)
		p.rooms[conversationID] = room
	}

	if entry, ok := room[state.UserID]; ok {
		entry.state = state
		entry.timer.Reset(p.idle)
		return
	}

	entry := &typingEntry{state: state}
	entry.timer = time.AfterFunc(p.idle, func() {
		p.expire(conversationID, state.UserID)
	})
	room[state.UserID] = entry
}

// Typists returns the display names currently typing in the conversation,
// excluding excludeUserID.
func (p *Presence) Typists(conversationID string, excludeUserID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	room := p.rooms[conversationID]
	if len(room) == 0 {
		return nil
	}
	names := make([]string, 0, len(room))
	for userID, entry := range room {
		if userID == excludeUserID {
			continue
		}
		names = append(names, entry.state.DisplayName)
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// DropUser clears the user's typing state everywhere. Called on websocket
// disconnect; no expiry callbacks fire, the leave event covers it.
func (p *Presence) DropUser(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for conversationID := range p.rooms {
		p.removeLocked(conversationID, userID)
	}
}

// Close stops all timers and clears state.
func (p *Presence) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, room := range p.rooms {
		for _, entry := range room {
			entry.timer.Stop()
		}
	}
	p.rooms = make(map[string]map[string]*typingEntry)
}

func (p *Presence) expire(conversationID string, userID string) {
	p.mu.Lock()
	room := p.rooms[conversationID]
	entry, ok := room[userID]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(p.rooms, conversationID)
	}
	state := entry.state
	cb := p.onExpire
	p.mu.Unlock()

	if cb != nil {
		cb(conversationID, state)
	}
}

func (p *Presence) removeLocked(conversationID string, userID string) {
	room := p.rooms[conversationID]
	entry, ok := room[userID]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(room, userID)
	if len(room) == 0 {
		delete(p.rooms, conversationID)
	}
}
