package messaging

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewMessage_TrimsAndDefaults(t *testing.T) {
	msg, err := NewMessage(Message{
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "  hello  ",
	})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if msg.Content != "hello" {
		t.Fatalf("got content %q; want trimmed", msg.Content)
	}
	if msg.Type != MessageTypeText {
		t.Fatalf("got type %q; want TEXT default", msg.Type)
	}
	if msg.CreatedAt.IsZero() {
		t.Fatal("created_at must default to now")
	}
}

func TestNewMessage_RejectsEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := NewMessage(Message{ConversationID: "c1", SenderID: "u1", Content: content}); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("content %q: got %v; want ErrEmptyMessage", content, err)
		}
	}
}

func TestMetadata_RentalConfirmationRoundTrip(t *testing.T) {
	end := "2025-09-01"
	meta := RentalConfirmationMeta{
		RentalID:     "r1",
		BoxID:        "b1",
		StartDate:    "2025-03-01",
		EndDate:      &end,
		MonthlyPrice: 4500,
	}
	raw, err := EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMetadata(MessageTypeRentalConfirmed, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(RentalConfirmationMeta)
	if !ok {
		t.Fatalf("got %T; want RentalConfirmationMeta", decoded)
	}
	if got.RentalID != meta.RentalID || got.BoxID != meta.BoxID ||
		got.StartDate != meta.StartDate || got.MonthlyPrice != meta.MonthlyPrice {
		t.Fatalf("got %+v; want %+v", got, meta)
	}
	if got.EndDate == nil || *got.EndDate != end {
		t.Fatalf("got end date %v; want %q", got.EndDate, end)
	}
}

func TestMetadata_TextEncodesToNull(t *testing.T) {
	raw, err := EncodeMetadata(TextMeta{})
	if err != nil || raw != nil {
		t.Fatalf("got raw=%v err=%v; want nil,nil", raw, err)
	}
}

func TestMetadata_SystemMessagesArePlainText(t *testing.T) {
	decoded, err := DecodeMetadata(MessageTypeSystem, []byte(`{"ignored":true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded.(TextMeta); !ok {
		t.Fatalf("got %T; want TextMeta", decoded)
	}
}

// Payloads of message types this service does not model survive untouched.
func TestMetadata_UnknownTypePreserved(t *testing.T) {
	payload := []byte(`{"kind":"forum_link","thread":42}`)
	decoded, err := DecodeMetadata(MessageType("FORUM_LINK"), payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	unknown, ok := decoded.(UnknownMeta)
	if !ok {
		t.Fatalf("got %T; want UnknownMeta", decoded)
	}
	out, err := json.Marshal(unknown)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(payload) {
		t.Fatalf("got %s; want original payload preserved", out)
	}
}

func TestConversation_PartyChecks(t *testing.T) {
	c := &Conversation{
		ID:            "c1",
		RenterID:      "renter",
		StableOwnerID: "owner",
		CreatedAt:     time.Now(),
	}
	if !c.IsParty("renter") || !c.IsParty("owner") {
		t.Fatal("both parties must pass")
	}
	if c.IsParty("stranger") || c.IsParty("") {
		t.Fatal("non-parties must fail")
	}
	if c.Counterpart("renter") != "owner" || c.Counterpart("owner") != "renter" {
		t.Fatal("counterpart lookup broken")
	}
	if c.Counterpart("stranger") != "" {
		t.Fatal("counterpart of a stranger must be empty")
	}
}
