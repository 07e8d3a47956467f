package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
)

func TestSendMessage_PersistsAndBumpsActivity(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)

	before, _ := repo.GetMessagesByConversation(context.Background(), "c1")

	msg, err := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "renter",
		Content:        "Is this box available?",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected persisted message id")
	}
	if msg.Type != messaging.MessageTypeText {
		t.Fatalf("got type %q; want TEXT", msg.Type)
	}

	after, _ := repo.GetMessagesByConversation(context.Background(), "c1")
	if len(after) != len(before)+1 {
		t.Fatalf("got %d messages; want %d", len(after), len(before)+1)
	}
	for _, prior := range before {
		if msg.CreatedAt.Before(prior.CreatedAt) {
			t.Fatal("new message timestamp precedes an existing message")
		}
	}

	conv, _ := repo.GetConversation(context.Background(), "c1")
	if conv.LastActivityAt.Before(msg.CreatedAt) {
		t.Fatal("conversation last-activity not bumped")
	}
}

func TestSendMessage_EmptyContent(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)

	_, err := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "renter",
		Content:        "   ",
	})
	if !errors.Is(err, messaging.ErrEmptyMessage) {
		t.Fatalf("got %v; want ErrEmptyMessage", err)
	}
	msgs, _ := repo.GetMessagesByConversation(context.Background(), "c1")
	if len(msgs) != 0 {
		t.Fatal("rejected message must not persist")
	}
}

func TestSendMessage_ClosedConversationRejected(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	repo.closeConversation("c1")
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)

	_, err := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "renter",
		Content:        "still there?",
	})
	if !errors.Is(err, messaging.ErrConversationClosed) {
		t.Fatalf("got %v; want ErrConversationClosed", err)
	}
	msgs, _ := repo.GetMessagesByConversation(context.Background(), "c1")
	if len(msgs) != 0 {
		t.Fatal("closed conversation must not accept messages")
	}
}

// A missing conversation and a foreign one must be indistinguishable.
func TestSendMessage_GuardNonEnumerable(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)

	_, errMissing := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "no-such-conversation",
		SenderID:       "stranger",
		Content:        "hi",
	})
	_, errForeign := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "stranger",
		Content:        "hi",
	})
	if !errors.Is(errMissing, messaging.ErrNotParticipant) || !errors.Is(errForeign, messaging.ErrNotParticipant) {
		t.Fatalf("got missing=%v foreign=%v; want ErrNotParticipant for both", errMissing, errForeign)
	}
	if errMissing.Error() != errForeign.Error() {
		t.Fatal("errors must be identical to avoid leaking conversation existence")
	}
}

// The message is the primary artifact: a failed activity bump is swallowed.
func TestSendMessage_TouchFailureStillSucceeds(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	repo.failTouch = true
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)

	msg, err := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "owner",
		Content:        "Yes, it is free from March.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	msgs, _ := repo.GetMessagesByConversation(context.Background(), "c1")
	if len(msgs) != 1 || msgs[0].ID != msg.ID {
		t.Fatal("message must persist even when the activity bump fails")
	}
}

func TestSendMessage_InvalidatesCounterpartUnreadCache(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	cache := newFakeCache()
	_ = cache.Set(context.Background(), usecase.UnreadCacheKey("c1", "owner"), "0", 0)
	uc := usecase.NewSendMessageUseCase(repo, cache, nil)

	if _, err := uc.Execute(context.Background(), usecase.SendMessageInput{
		ConversationID: "c1",
		SenderID:       "renter",
		Content:        "ping",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := cache.Get(context.Background(), usecase.UnreadCacheKey("c1", "owner")); err == nil {
		t.Fatal("counterpart unread cache entry should be invalidated")
	}
}

// Two concurrent sends both persist and the listing stays totally ordered.
func TestSendMessage_ConcurrentSendsBothPersist(t *testing.T) {
	repo := newMemRepo()
	repo.addConversation("c1", "renter", "owner")
	uc := usecase.NewSendMessageUseCase(repo, nil, nil)
	listUC := usecase.NewListMessagesUseCase(repo)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, sender := range []string{"renter", "owner"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), usecase.SendMessageInput{
				ConversationID: "c1",
				SenderID:       sender,
				Content:        "hello from " + sender,
			})
			errs <- err
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent send: %v", err)
		}
	}

	msgs, err := listUC.Execute(context.Background(), usecase.ListMessagesInput{
		ConversationID: "c1",
		RequesterID:    "renter",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages; want 2, no message lost", len(msgs))
	}
	if msgs[1].CreatedAt.Before(msgs[0].CreatedAt) {
		t.Fatal("listing not ordered by creation time")
	}
}
