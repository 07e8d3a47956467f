package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// ListMessagesInput carries parameters to fetch the history of a conversation.
type ListMessagesInput struct {
	ConversationID string
	RequesterID    string
}

// ListMessagesUseCase returns the full message history of a conversation in
// creation order, gated by the access guard. Marking the returned messages as
// read is a separate best-effort concern (MarkReadUseCase) so that a failed
// read receipt can never fail the read itself.
type ListMessagesUseCase struct {
	Repo repository.ConversationRepository
}

func NewListMessagesUseCase(repo repository.ConversationRepository) *ListMessagesUseCase {
	return &ListMessagesUseCase{Repo: repo}
}

// Execute returns messages ascending by creation time.
func (uc *ListMessagesUseCase) Execute(ctx context.Context, in ListMessagesInput) ([]messaging.Message, error) {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, messaging.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.IsParty(in.RequesterID) {
		return nil, messaging.ErrNotParticipant
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
