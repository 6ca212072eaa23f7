package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
)

// Party selects which side of a booking an overlap scan applies to.
type Party string

const (
	PartyTrainer Party = "trainer_id"
	PartyClient  Party = "client_id"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	CreateBatch(ctx context.Context, slots []*model.TimeSlot) error
	Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	GetByInterval(ctx context.Context, trainerID uuid.UUID, start, end time.Time) (*model.TimeSlot, error)
	ListByTrainer(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error)
	ListOpen(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error)

	// SetAvailability and Delete are conditional: they only apply to
	// unbooked slots and report whether a row was touched.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ClaimForBooking atomically marks every listed slot booked,
	// succeeding only if all of them are still free.
	ClaimForBooking(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, bookingID uuid.UUID) (bool, error)
	ReleaseBooking(ctx context.Context, bookingID uuid.UUID) error
}

type BookingRequestFilters struct {
	ClientID  *uuid.UUID
	TrainerID *uuid.UUID
	Status    model.BookingRequestStatus
}

type BookingRequestRepository interface {
	Create(ctx context.Context, req *model.BookingRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error)
	List(ctx context.Context, filters *BookingRequestFilters) ([]*model.BookingRequest, error)

	// Status transitions are guarded by the current status so that a
	// racing transition loses cleanly (zero rows) instead of
	// overwriting a terminal state.
	MarkApproved(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) ([]*model.BookingRequest, error)
}

type BookingRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListByParty(ctx context.Context, party Party, ownerID uuid.UUID, from, to time.Time) ([]*model.Booking, error)
	HasOverlap(ctx context.Context, party Party, ownerID uuid.UUID, start, end time.Time) (bool, error)

	// HasOverlapTx runs the overlap scan on the given transaction so a
	// booking write and its guard read share one atomic unit.
	HasOverlapTx(ctx context.Context, tx *sqlx.Tx, party Party, ownerID uuid.UUID, start, end time.Time) (bool, error)

	// LockOwner serializes booking writes for one owner within the
	// transaction, so concurrent approvals for the same client cannot
	// both pass the overlap guard.
	LockOwner(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID) error

	MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
}

type TrainerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.TrainerCapability, error)
	List(ctx context.Context) ([]*model.TrainerCapability, error)
}

// TxRunner executes a function within a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}
