package realtime

import (
	"sync"
	"testing"
	"time"
)

const testIdle = 40 * time.Millisecond

type expireRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *expireRecorder) record(conversationID string, state TypingState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, conversationID+"/"+state.UserID)
}

func (r *expireRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPresence_IdleExpiryFiresCallback(t *testing.T) {
	rec := &expireRecorder{}
	p := NewPresence(testIdle, rec.record)
	defer p.Close()

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	if got := p.Typists("conv-1", ""); len(got) != 1 || got[0] != "Ola" {
		t.Fatalf("got typists %v; want [Ola]", got)
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != "conv-1/u1" {
		t.Fatalf("got expiry %v; want conv-1/u1", got)
	}
	if got := p.Typists("conv-1", ""); got != nil {
		t.Fatalf("got typists %v after expiry; want none", got)
	}
}

func TestPresence_RepeatedTypingDebouncesExpiry(t *testing.T) {
	rec := &expireRecorder{}
	p := NewPresence(testIdle, rec.record)
	defer p.Close()

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	for i := 0; i < 4; i++ {
		time.Sleep(testIdle / 2)
		p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
		if len(rec.snapshot()) != 0 {
			t.Fatal("expiry fired while keystrokes kept arriving")
		}
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
}

func TestPresence_ExplicitStopSkipsCallback(t *testing.T) {
	rec := &expireRecorder{}
	p := NewPresence(testIdle, rec.record)
	defer p.Close()

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	p.SetTyping("conv-1", TypingState{UserID: "u1"}, false)

	if got := p.Typists("conv-1", ""); got != nil {
		t.Fatalf("got typists %v; want none", got)
	}
	time.Sleep(2 * testIdle)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("got expiry events %v; explicit stop must not fire the callback", got)
	}
}

func TestPresence_TypistsExcludesObserver(t *testing.T) {
	p := NewPresence(time.Minute, nil)
	defer p.Close()

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	p.SetTyping("conv-1", TypingState{UserID: "u2", DisplayName: "Kari"}, true)

	got := p.Typists("conv-1", "u1")
	if len(got) != 1 || got[0] != "Kari" {
		t.Fatalf("got %v; want [Kari]", got)
	}
	if got := p.Typists("conv-2", ""); got != nil {
		t.Fatalf("got %v for an idle conversation; want none", got)
	}
}

func TestPresence_DropUserClearsEveryConversation(t *testing.T) {
	rec := &expireRecorder{}
	p := NewPresence(time.Minute, rec.record)
	defer p.Close()

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	p.SetTyping("conv-2", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	p.SetTyping("conv-2", TypingState{UserID: "u2", DisplayName: "Kari"}, true)

	p.DropUser("u1")

	if got := p.Typists("conv-1", ""); got != nil {
		t.Fatalf("conv-1 still has %v", got)
	}
	if got := p.Typists("conv-2", ""); len(got) != 1 || got[0] != "Kari" {
		t.Fatalf("got %v; want [Kari]", got)
	}
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("disconnect cleanup must not fire expiry callbacks, got %v", got)
	}
}

func TestPresence_CloseStopsTimers(t *testing.T) {
	rec := &expireRecorder{}
	p := NewPresence(testIdle, rec.record)

	p.SetTyping("conv-1", TypingState{UserID: "u1", DisplayName: "Ola"}, true)
	p.Close()

	time.Sleep(2 * testIdle)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("got expiry events %v after Close", got)
	}
	p.SetTyping("conv-1", TypingState{UserID: "u2", DisplayName: "Kari"}, true)
	if got := p.Typists("conv-1", ""); got != nil {
		t.Fatalf("closed registry accepted state: %v", got)
	}
}
