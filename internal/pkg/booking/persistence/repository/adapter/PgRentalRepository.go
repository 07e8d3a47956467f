package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	booking "github.com/thorep/stallplass-sub008/internal/pkg/booking/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/booking/persistence/repository/port"
)

type PgRentalRepository struct {
	pool *pgxpool.Pool
}

func NewPgRentalRepository(pool *pgxpool.Pool) *PgRentalRepository {
	return &PgRentalRepository{pool: pool}
}

var _ repository.RentalRepository = (*PgRentalRepository)(nil)

func (r *PgRentalRepository) CreateRental(ctx context.Context, rental booking.Rental) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgRentalRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rental (conversation_id, renter_id, stable_id, box_id, start_date, end_date, monthly_price, status, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5, $6, $7, $8, $9)
		RETURNING id::text
	`, rental.ConversationID, rental.RenterID, rental.StableID, rental.BoxID,
		rental.StartDate, rental.EndDate, rental.MonthlyPrice, rental.Status, rental.CreatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", booking.ErrAlreadyConfirmed
		}
		return "", err
	}
	return id, nil
}

func (r *PgRentalRepository) DeleteRental(ctx context.Context, rentalID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRentalRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM rental WHERE id = $1::uuid`, rentalID)
	return err
}

func (r *PgRentalRepository) FindRentalByConversation(ctx context.Context, conversationID string) (*booking.Rental, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgRentalRepository: nil pool")
	}
	var rental booking.Rental
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, conversation_id::text, renter_id::text, stable_id::text, box_id::text,
		       start_date, end_date, monthly_price, status, created_at
		FROM rental
		WHERE conversation_id = $1::uuid
	`, conversationID).Scan(&rental.ID, &rental.ConversationID, &rental.RenterID, &rental.StableID,
		&rental.BoxID, &rental.StartDate, &rental.EndDate, &rental.MonthlyPrice, &rental.Status, &rental.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *PgRentalRepository) GetBox(ctx context.Context, boxID string) (*booking.Box, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgRentalRepository: nil pool")
	}
	var b booking.Box
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, stable_id::text, name, monthly_price, is_available
		FROM box
		WHERE id = $1::uuid
	`, boxID).Scan(&b.ID, &b.StableID, &b.Name, &b.MonthlyPrice, &b.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgRentalRepository) SetBoxAvailability(ctx context.Context, boxID string, available bool) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRentalRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE box SET is_available = $2 WHERE id = $1::uuid
	`, boxID, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgRentalRepository) ConfirmConversation(ctx context.Context, conversationID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRentalRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversation
		SET status = 'RENTAL_CONFIRMED', last_activity_at = GREATEST(last_activity_at, $2)
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
