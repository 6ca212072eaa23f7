package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
)

func (r *bookingRepository) Create(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, client_id, trainer_id, request_id, start_time, end_time,
			status, cost, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		booking.ID,
		booking.ClientID,
		booking.TrainerID,
		booking.RequestID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.Cost,
		booking.Notes,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, client_id, trainer_id, request_id, start_time, end_time,
			   status, cost, notes, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListByParty(ctx context.Context, party repository.Party, ownerID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT id, client_id, trainer_id, request_id, start_time, end_time,
			   status, cost, notes, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE %s = $1 AND start_time >= $2 AND end_time <= $3
		ORDER BY start_time ASC
	`, party)

	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// HasOverlap scans live bookings for the owner using half-open interval
// semantics; cancelled bookings never conflict.
func (r *bookingRepository) HasOverlap(ctx context.Context, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	return hasOverlap(ctx, r.db, party, ownerID, start, end)
}

func (r *bookingRepository) HasOverlapTx(ctx context.Context, tx *sqlx.Tx, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	return hasOverlap(ctx, tx, party, ownerID, start, end)
}

func hasOverlap(ctx context.Context, q sqlx.QueryerContext, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE %s = $1
			AND status != $2
			AND start_time < $3
			AND end_time > $4
		)
	`, party)

	var overlaps bool
	err := sqlx.GetContext(ctx, q, &overlaps, query, ownerID, model.BookingStatusCancelled, end, start)
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return overlaps, nil
}

// LockOwner takes a transaction-scoped advisory lock keyed on the owner
// id. Overlap guards cannot row-lock bookings that do not exist yet, so
// concurrent writes for one owner serialize here instead.
func (r *bookingRepository) LockOwner(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID.String()); err != nil {
		return fmt.Errorf("failed to lock booking owner: %w", err)
	}
	return nil
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		model.BookingStatusCancelled, reason, time.Now(),
		id, model.BookingStatusConfirmed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *bookingRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		model.BookingStatusCompleted, time.Now(),
		id, model.BookingStatusConfirmed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
