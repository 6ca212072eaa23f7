package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
)

// Overlaps reports whether two half-open intervals [startA, endA) and
// [startB, endB) intersect. Adjacent intervals (endA == startB) do not
// overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}

// ConflictChecker answers whether a candidate interval collides with an
// existing confirmed or completed booking on either side of the
// marketplace.
type ConflictChecker struct {
	bookings repository.BookingRepository
}

func NewConflictChecker(bookings repository.BookingRepository) *ConflictChecker {
	return &ConflictChecker{bookings: bookings}
}

// HasTrainerConflict reports whether the trainer already has a live
// booking overlapping [start, end).
func (c *ConflictChecker) HasTrainerConflict(ctx context.Context, trainerID uuid.UUID, start, end time.Time) (bool, error) {
	conflict, err := c.bookings.HasOverlap(ctx, repository.PartyTrainer, trainerID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check trainer conflicts: %w", err)
	}
	return conflict, nil
}

// HasClientConflict reports whether the client is already booked at an
// overlapping time.
func (c *ConflictChecker) HasClientConflict(ctx context.Context, clientID uuid.UUID, start, end time.Time) (bool, error) {
	conflict, err := c.bookings.HasOverlap(ctx, repository.PartyClient, clientID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check client conflicts: %w", err)
	}
	return conflict, nil
}

// HasConflict checks both parties at once.
func (c *ConflictChecker) HasConflict(ctx context.Context, trainerID, clientID uuid.UUID, start, end time.Time) (bool, error) {
	if conflict, err := c.HasTrainerConflict(ctx, trainerID, start, end); err != nil || conflict {
		return conflict, err
	}
	return c.HasClientConflict(ctx, clientID, start, end)
}

// HasConflictTx checks both parties through the given transaction, so
// the guard read and the booking write commit or abort together.
func (c *ConflictChecker) HasConflictTx(ctx context.Context, tx *sqlx.Tx, trainerID, clientID uuid.UUID, start, end time.Time) (bool, error) {
	conflict, err := c.bookings.HasOverlapTx(ctx, tx, repository.PartyTrainer, trainerID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check trainer conflicts: %w", err)
	}
	if conflict {
		return true, nil
	}
	conflict, err = c.bookings.HasOverlapTx(ctx, tx, repository.PartyClient, clientID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check client conflicts: %w", err)
	}
	return conflict, nil
}
