package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

// Manager grants short-lived exclusive holds on slots between
// suggestion and confirmation.
type Manager struct {
	store   Store
	slots   repository.SlotRepository
	ttl     time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

const DefaultTTL = 10 * time.Minute

func NewManager(store Store, slots repository.SlotRepository, ttl time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:   store,
		slots:   slots,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Reserve places a hold on the slot for holderToken. Exactly one
// caller wins when several race on the same slot; losers receive a
// conflict error.
func (m *Manager) Reserve(ctx context.Context, slotID uuid.UUID, holderToken string) (*model.SlotReservation, error) {
	slot, err := m.slots.Get(ctx, slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("slot", err)
		}
		return nil, err
	}
	if slot.IsBooked || !slot.IsAvailable {
		m.countAttempt("rejected")
		return nil, apperrors.NewConflict("slot unavailable: already booked", nil)
	}

	won, err := m.store.Acquire(ctx, slotID, holderToken, m.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}
	if !won {
		m.countAttempt("lost")
		return nil, apperrors.NewConflict("slot unavailable: held by another client", nil)
	}

	m.countAttempt("won")
	now := time.Now()
	return &model.SlotReservation{
		SlotID:      slotID,
		HolderToken: holderToken,
		ReservedAt:  now,
		ExpiresAt:   now.Add(m.ttl),
	}, nil
}

// ReserveByInterval resolves the slot from its trainer and exact
// interval, then reserves it under a fresh token.
func (m *Manager) ReserveByInterval(ctx context.Context, trainerID uuid.UUID, start, end time.Time) (*model.ReserveSlotResponse, error) {
	slot, err := m.slots.GetByInterval(ctx, trainerID, start, end)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("slot", err)
		}
		return nil, err
	}

	token := uuid.New().String()
	res, err := m.Reserve(ctx, slot.ID, token)
	if err != nil {
		return nil, err
	}

	return &model.ReserveSlotResponse{
		ReservationToken: token,
		SlotID:           slot.ID,
		ExpiresAt:        res.ExpiresAt,
	}, nil
}

// Release drops the hold if holderToken still owns it. Releasing an
// absent or expired hold is a no-op.
func (m *Manager) Release(ctx context.Context, slotID uuid.UUID, holderToken string) error {
	if err := m.store.Release(ctx, slotID, holderToken); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.ReservationReleases.Inc()
	}
	return nil
}

// ReleaseAll releases a composite candidate's holds. Errors are
// collected so one failed release does not orphan the rest.
func (m *Manager) ReleaseAll(ctx context.Context, slotIDs []uuid.UUID, holderToken string) error {
	var firstErr error
	for _, id := range slotIDs {
		if err := m.Release(ctx, id, holderToken); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsHeld reports whether the slot carries an active hold.
func (m *Manager) IsHeld(ctx context.Context, slotID uuid.UUID) (bool, error) {
	_, held, err := m.store.Holder(ctx, slotID)
	return held, err
}

func (m *Manager) countAttempt(outcome string) {
	if m.metrics != nil {
		m.metrics.ReservationAttempts.WithLabelValues(outcome).Inc()
	}
}
