package usecase

import (
	"context"
	"fmt"
	"time"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// StartConversationInput carries the data to open a thread about a box.
type StartConversationInput struct {
	RenterID string
	StableID string
	BoxID    *string
	Content  string // opening message
}

// StartConversationUseCase opens a conversation between a prospective renter
// and a stable, posting the renter's opening message in the same call.
type StartConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewStartConversationUseCase(repo repository.ConversationRepository) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo}
}

// Execute persists the conversation and its first message.
func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (*messaging.Conversation, error) {
	if in.RenterID == "" || in.StableID == "" {
		return nil, fmt.Errorf("renter_id and stable_id are required")
	}

	now := time.Now().UTC()
	conv := messaging.Conversation{
		RenterID:       in.RenterID,
		StableID:       in.StableID,
		BoxID:          in.BoxID,
		Status:         messaging.ConversationOpen,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	id, err := uc.Repo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id

	msg, err := messaging.NewMessage(messaging.Message{
		ConversationID: id,
		SenderID:       in.RenterID,
		Content:        in.Content,
		Type:           messaging.MessageTypeText,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}
	if _, err := uc.Repo.SaveMessage(ctx, *msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &conv, nil
}
