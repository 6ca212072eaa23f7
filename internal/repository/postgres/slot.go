package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (
			id, trainer_id, date, start_time, end_time,
			duration_minutes, is_available, is_booked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.TrainerID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.DurationMinutes,
		slot.IsAvailable,
		slot.IsBooked,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create time slot: %w", err)
	}
	return nil
}

func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO time_slots (
			id, trainer_id, date, start_time, end_time,
			duration_minutes, is_available, is_booked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now()
	for _, slot := range slots {
		if slot.ID == uuid.Nil {
			slot.ID = uuid.New()
		}
		slot.CreatedAt = now
		slot.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, query,
			slot.ID,
			slot.TrainerID,
			slot.Date,
			slot.StartTime,
			slot.EndTime,
			slot.DurationMinutes,
			slot.IsAvailable,
			slot.IsBooked,
			slot.CreatedAt,
			slot.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert time slot: %w", err)
		}
	}

	return tx.Commit()
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, trainer_id, date, start_time, end_time,
			   duration_minutes, is_available, is_booked, booking_id,
			   created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`
	var slot model.TimeSlot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) GetByInterval(ctx context.Context, trainerID uuid.UUID, start, end time.Time) (*model.TimeSlot, error) {
	query := `
		SELECT id, trainer_id, date, start_time, end_time,
			   duration_minutes, is_available, is_booked, booking_id,
			   created_at, updated_at
		FROM time_slots
		WHERE trainer_id = $1 AND start_time = $2 AND end_time = $3
	`
	var slot model.TimeSlot
	err := r.db.GetContext(ctx, &slot, query, trainerID, start, end)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get time slot by interval: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) ListByTrainer(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, trainer_id, date, start_time, end_time,
			   duration_minutes, is_available, is_booked, booking_id,
			   created_at, updated_at
		FROM time_slots
		WHERE trainer_id = $1 AND start_time >= $2 AND end_time <= $3
		ORDER BY start_time ASC
	`
	var slots []*model.TimeSlot
	err := r.db.SelectContext(ctx, &slots, query, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListOpen(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, trainer_id, date, start_time, end_time,
			   duration_minutes, is_available, is_booked, booking_id,
			   created_at, updated_at
		FROM time_slots
		WHERE trainer_id = $1
		AND start_time >= $2 AND end_time <= $3
		AND is_available = TRUE AND is_booked = FALSE
		ORDER BY start_time ASC
	`
	var slots []*model.TimeSlot
	err := r.db.SelectContext(ctx, &slots, query, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list open time slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	query := `
		UPDATE time_slots
		SET is_available = $1, updated_at = $2
		WHERE id = $3 AND is_booked = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, available, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to set slot availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *slotRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM time_slots
		WHERE id = $1 AND is_booked = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete time slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ClaimForBooking is the compare-and-set that closes the
// suggestion-to-confirmation race: it books every slot in ids only if
// all of them are still available, reporting false otherwise.
func (r *slotRepository) ClaimForBooking(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	query := `
		UPDATE time_slots
		SET is_booked = TRUE, is_available = FALSE, booking_id = $1, updated_at = $2
		WHERE id = ANY($3)
		AND is_booked = FALSE AND is_available = TRUE
	`
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	result, err := tx.ExecContext(ctx, query, bookingID, time.Now(), pq.Array(strIDs))
	if err != nil {
		return false, fmt.Errorf("failed to claim time slots: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == int64(len(ids)), nil
}

func (r *slotRepository) ReleaseBooking(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE time_slots
		SET is_booked = FALSE, is_available = TRUE, booking_id = NULL, updated_at = $1
		WHERE booking_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), bookingID); err != nil {
		return fmt.Errorf("failed to release booked slots: %w", err)
	}
	return nil
}
