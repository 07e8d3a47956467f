package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	qport "github.com/thorep/stallplass-sub008/internal/infrastructure/queue/port"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/adapter"
)

// MarkReadTaskType is the queue task name for flagging conversation messages read.
const MarkReadTaskType = "messaging:mark_read"

// MarkReadTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type MarkReadTaskPayload struct {
	ConversationID string `json:"conversationId"`
	ViewerID       string `json:"viewerId"`
}

// RegisterMarkReadTask binds the task handler to the provided server.
// Read receipts are best-effort, so the handler caps retries by reporting
// success for anything but a malformed payload or a transient DB error.
func RegisterMarkReadTask(srv qport.Server, pool *pgxpool.Pool, cache cacheport.Cache) {
	srv.Register(MarkReadTaskType, func(ctx context.Context, t qport.Task) error {
		var p MarkReadTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		repo := repoAdapter.NewPgConversationRepository(pool)
		uc := usecase.NewMarkReadUseCase(repo, cache)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, err := uc.Execute(ctx, usecase.MarkReadInput{
			ConversationID: p.ConversationID,
			ViewerID:       p.ViewerID,
		})
		return err
	})
}
