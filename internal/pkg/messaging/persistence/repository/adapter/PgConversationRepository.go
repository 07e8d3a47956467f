package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

var _ repository.ConversationRepository = (*PgConversationRepository)(nil)

func (r *PgConversationRepository) GetConversation(ctx context.Context, conversationID string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var (
		c     messaging.Conversation
		boxID *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT c.id::text, c.renter_id::text, c.stable_id::text, s.owner_id::text,
		       c.box_id::text, c.status, c.created_at, c.last_activity_at
		FROM conversation c
		JOIN stable s ON s.id = c.stable_id
		WHERE c.id = $1::uuid
	`, conversationID).Scan(&c.ID, &c.RenterID, &c.StableID, &c.StableOwnerID,
		&boxID, &c.Status, &c.CreatedAt, &c.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.BoxID = boxID
	return &c, nil
}

func (r *PgConversationRepository) CreateConversation(ctx context.Context, c messaging.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgConversationRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversation (renter_id, stable_id, box_id, status, created_at, last_activity_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $5)
		RETURNING id::text
	`, c.RenterID, c.StableID, c.BoxID, c.Status, c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgConversationRepository) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversation
		SET last_activity_at = GREATEST(last_activity_at, $2)
		WHERE id = $1::uuid
	`, conversationID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgConversationRepository) SaveMessage(ctx context.Context, m messaging.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgConversationRepository: nil pool")
	}
	meta, err := messaging.EncodeMetadata(m.Metadata)
	if err != nil {
		return "", err
	}
	var id string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO message (conversation_id, sender_id, content, msg_type, metadata, is_read, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5::jsonb, $6, $7)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.Content, m.Type, meta, m.Read, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgConversationRepository) GetMessagesByConversation(ctx context.Context, conversationID string) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, content, msg_type, metadata, is_read, created_at
		FROM message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var (
			msg messaging.Message
			raw []byte
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content,
			&msg.Type, &raw, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, err
		}
		meta, err := messaging.DecodeMetadata(msg.Type, raw)
		if err != nil {
			return nil, err
		}
		msg.Metadata = meta
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *PgConversationRepository) MarkMessagesRead(ctx context.Context, conversationID string, viewerID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE message
		SET is_read = TRUE
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND is_read = FALSE
	`, conversationID, viewerID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgConversationRepository) CountUnread(ctx context.Context, conversationID string, viewerID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgConversationRepository: nil pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM message
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND is_read = FALSE
	`, conversationID, viewerID).Scan(&n)
	return n, err
}
