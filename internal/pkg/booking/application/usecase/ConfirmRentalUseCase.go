package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	booking "github.com/thorep/stallplass-sub008/internal/pkg/booking/application/domain"
	"github.com/thorep/stallplass-sub008/internal/pkg/booking/application/saga"
	bookingrepo "github.com/thorep/stallplass-sub008/internal/pkg/booking/persistence/repository/port"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	messagingrepo "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
	users "github.com/thorep/stallplass-sub008/internal/repository/port"
)

// ConfirmRentalInput carries the confirmation parameters. MonthlyPrice nil
// means "use the box's listed price"; EndDate nil means open-ended.
type ConfirmRentalInput struct {
	ConversationID string
	ConfirmerID    string
	StartDate      time.Time
	EndDate        *time.Time
	MonthlyPrice   *float64
}

// ConfirmRentalResult is what a successful confirmation produced. The system
// message is nil when its best-effort step failed; the rental is always set.
type ConfirmRentalResult struct {
	Rental        *booking.Rental
	SystemMessage *messaging.Message
}

// ConfirmRentalUseCase runs the rental confirmation workflow as a linear saga:
//
//  1. create the rental (critical; compensated by deletion)
//  2. mark the box unavailable (critical; failure deletes the rental)
//  3. flip the conversation to RENTAL_CONFIRMED (best-effort)
//  4. append the RENTAL_CONFIRMATION system message (best-effort)
//
// The rental is the valuable artifact: once steps 1 and 2 hold, the operation
// reports success even if the status flip or the message post failed, because
// both are recoverable by a refresh. This is deliberately not one transaction.
type ConfirmRentalUseCase struct {
	Conversations messagingrepo.ConversationRepository
	Rentals       bookingrepo.RentalRepository
	Messages      bookingrepo.MessageStore
	Users         users.UserRepository
	Log           *slog.Logger
}

func NewConfirmRentalUseCase(
	conversations messagingrepo.ConversationRepository,
	rentals bookingrepo.RentalRepository,
	messages bookingrepo.MessageStore,
	userRepo users.UserRepository,
	log *slog.Logger,
) *ConfirmRentalUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &ConfirmRentalUseCase{
		Conversations: conversations,
		Rentals:       rentals,
		Messages:      messages,
		Users:         userRepo,
		Log:           log,
	}
}

// Execute confirms the rental for the conversation.
func (uc *ConfirmRentalUseCase) Execute(ctx context.Context, in ConfirmRentalInput) (*ConfirmRentalResult, error) {
	conv, err := uc.Conversations.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, messagingrepo.ErrNotFound) {
		return nil, messaging.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.IsParty(in.ConfirmerID) {
		return nil, messaging.ErrNotParticipant
	}
	if conv.BoxID == nil {
		return nil, booking.ErrMissingBox
	}

	// Precondition: at most one rental per conversation. The unique index on
	// rental.conversation_id still backstops a race between two confirmers.
	if _, err := uc.Rentals.FindRentalByConversation(ctx, in.ConversationID); err == nil {
		return nil, booking.ErrAlreadyConfirmed
	} else if !errors.Is(err, bookingrepo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	box, err := uc.Rentals.GetBox(ctx, *conv.BoxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	price := box.MonthlyPrice
	if in.MonthlyPrice != nil {
		price = *in.MonthlyPrice
	}

	rental, err := booking.NewRental(booking.Rental{
		ConversationID: in.ConversationID,
		RenterID:       conv.RenterID,
		StableID:       conv.StableID,
		BoxID:          box.ID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		MonthlyPrice:   price,
	})
	if err != nil {
		return nil, err
	}

	// Phrased once, from the confirming party's perspective.
	content := uc.systemMessageContent(ctx, conv, box, rental, in.ConfirmerID)

	result := &ConfirmRentalResult{}
	err = saga.Run(ctx, uc.Log, []saga.Step{
		{
			Name:     "create_rental",
			Critical: true,
			Forward: func(ctx context.Context) error {
				id, err := uc.Rentals.CreateRental(ctx, *rental)
				if err != nil {
					return err
				}
				rental.ID = id
				result.Rental = rental
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return uc.Rentals.DeleteRental(ctx, rental.ID)
			},
		},
		{
			Name:     "mark_box_unavailable",
			Critical: true,
			Forward: func(ctx context.Context) error {
				return uc.Rentals.SetBoxAvailability(ctx, box.ID, false)
			},
		},
		{
			Name: "confirm_conversation",
			Forward: func(ctx context.Context) error {
				return uc.Rentals.ConfirmConversation(ctx, in.ConversationID, time.Now().UTC())
			},
		},
		{
			Name: "post_system_message",
			Forward: func(ctx context.Context) error {
				msg, err := messaging.NewMessage(messaging.Message{
					ConversationID: in.ConversationID,
					SenderID:       in.ConfirmerID,
					Content:        content,
					Type:           messaging.MessageTypeRentalConfirmed,
					Metadata:       rentalMeta(rental),
				})
				if err != nil {
					return err
				}
				id, err := uc.Messages.SaveMessage(ctx, *msg)
				if err != nil {
					return err
				}
				msg.ID = id
				result.SystemMessage = msg
				return nil
			},
		},
	})
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyConfirmed) {
			return nil, booking.ErrAlreadyConfirmed
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return result, nil
}

// systemMessageContent builds the confirmation text. An owner confirming sees
// the renter named; a renter confirming sees their own commitment. Display
// name lookups are best-effort.
func (uc *ConfirmRentalUseCase) systemMessageContent(ctx context.Context, conv *messaging.Conversation, box *booking.Box, rental *booking.Rental, confirmerID string) string {
	start := rental.StartDate.Format("2006-01-02")
	if confirmerID == conv.StableOwnerID {
		renter := uc.displayName(ctx, conv.RenterID, "the renter")
		return fmt.Sprintf("Your box %s is now rented to %s from %s.", box.Name, renter, start)
	}
	return fmt.Sprintf("You confirmed renting box %s from %s.", box.Name, start)
}

func (uc *ConfirmRentalUseCase) displayName(ctx context.Context, userID string, fallback string) string {
	if uc.Users == nil {
		return fallback
	}
	u, err := uc.Users.FindByID(ctx, userID)
	if err != nil || u == nil || u.DisplayName == "" {
		return fallback
	}
	return u.DisplayName
}

func rentalMeta(r *booking.Rental) messaging.RentalConfirmationMeta {
	meta := messaging.RentalConfirmationMeta{
		RentalID:     r.ID,
		BoxID:        r.BoxID,
		StartDate:    r.StartDate.Format("2006-01-02"),
		MonthlyPrice: r.MonthlyPrice,
	}
	if r.EndDate != nil {
		end := r.EndDate.Format("2006-01-02")
		meta.EndDate = &end
	}
	return meta
}
