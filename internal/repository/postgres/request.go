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
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
)

const bookingRequestColumns = `
	id, client_id, trainer_id, session_type, duration_minutes,
	preferred_times, avoid_times, preferred_days,
	allow_weekends, allow_evenings, earliest_date, latest_date,
	max_budget_per_session, budget_preference, price_sensitivity,
	trainer_experience_min, trainer_rating_min, specialty_preference,
	status, expires_at, requested_slot_ids, resolved_slot_ids,
	reservation_token, rejection_reason, booking_id,
	created_at, updated_at
`

func (r *bookingRequestRepository) Create(ctx context.Context, req *model.BookingRequest) error {
	query := `
		INSERT INTO booking_requests (` + bookingRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.ClientID,
		req.TrainerID,
		req.SessionType,
		req.DurationMinutes,
		req.PreferredTimes,
		req.AvoidTimes,
		req.PreferredDays,
		req.AllowWeekends,
		req.AllowEvenings,
		req.EarliestDate,
		req.LatestDate,
		req.MaxBudgetPerSession,
		req.BudgetPreference,
		req.PriceSensitivity,
		req.MinExperience,
		req.MinRating,
		req.SpecialtyPreference,
		req.Status,
		req.ExpiresAt,
		req.RequestedSlotIDs,
		req.ResolvedSlotIDs,
		req.ReservationToken,
		req.RejectionReason,
		req.BookingID,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	return nil
}

func (r *bookingRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE id = $1`

	var req model.BookingRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}
	return &req, nil
}

func (r *bookingRequestRepository) List(ctx context.Context, filters *repository.BookingRequestFilters) ([]*model.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", argCount)
		args = append(args, *filters.ClientID)
		argCount++
	}

	if filters.TrainerID != nil {
		query += fmt.Sprintf(" AND trainer_id = $%d", argCount)
		args = append(args, *filters.TrainerID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var requests []*model.BookingRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking requests: %w", err)
	}
	return requests, nil
}

func (r *bookingRequestRepository) MarkApproved(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	query := `
		UPDATE booking_requests
		SET status = $1, resolved_slot_ids = $2, booking_id = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	resolved := make(pq.StringArray, len(slotIDs))
	for i, sid := range slotIDs {
		resolved[i] = sid.String()
	}

	result, err := tx.ExecContext(ctx, query,
		model.RequestStatusApproved, resolved, bookingID, time.Now(),
		id, model.RequestStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to approve booking request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *bookingRequestRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE booking_requests
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		model.RequestStatusRejected, reason, time.Now(),
		id, model.RequestStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reject booking request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *bookingRequestRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE booking_requests
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		model.RequestStatusCancelled, reason, time.Now(),
		id, model.RequestStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ExpireDue flips every overdue pending request to expired and returns
// the affected rows. The status guard makes it safe to race with
// approve and reject on the same request.
func (r *bookingRequestRepository) ExpireDue(ctx context.Context, now time.Time) ([]*model.BookingRequest, error) {
	query := `
		UPDATE booking_requests
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at < $4
		RETURNING ` + bookingRequestColumns

	var requests []*model.BookingRequest
	err := r.db.SelectContext(ctx, &requests, query,
		model.RequestStatusExpired, time.Now(),
		model.RequestStatusPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire booking requests: %w", err)
	}
	return requests, nil
}
