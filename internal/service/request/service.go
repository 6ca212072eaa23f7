package request

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
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/scheduling"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/messaging"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

// Event channels for booking lifecycle notifications.
const (
	EventRequestCreated   = "booking.request.created"
	EventRequestApproved  = "booking.request.approved"
	EventRequestRejected  = "booking.request.rejected"
	EventRequestExpired   = "booking.request.expired"
	EventBookingCancelled = "booking.cancelled"
)

const DefaultRequestTTL = 48 * time.Hour

// ReservationReleaser is the slice of the reservation manager this
// service needs when a request leaves PENDING.
type ReservationReleaser interface {
	ReleaseAll(ctx context.Context, slotIDs []uuid.UUID, holderToken string) error
}

// Service drives the booking request state machine:
// PENDING -> {APPROVED, REJECTED, CANCELLED, EXPIRED}; an approval
// yields a CONFIRMED booking, which may become COMPLETED or CANCELLED.
type Service struct {
	requests     repository.BookingRequestRepository
	bookings     repository.BookingRepository
	slots        repository.SlotRepository
	tx           repository.TxRunner
	conflicts    *scheduling.ConflictChecker
	trainers     scheduling.TrainerDirectory
	reservations ReservationReleaser
	broker       messaging.Broker
	requestTTL   time.Duration
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(
	requests repository.BookingRequestRepository,
	bookings repository.BookingRepository,
	slots repository.SlotRepository,
	tx repository.TxRunner,
	conflicts *scheduling.ConflictChecker,
	trainers scheduling.TrainerDirectory,
	reservations ReservationReleaser,
	broker messaging.Broker,
	requestTTL time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if requestTTL <= 0 {
		requestTTL = DefaultRequestTTL
	}
	return &Service{
		requests:     requests,
		bookings:     bookings,
		slots:        slots,
		tx:           tx,
		conflicts:    conflicts,
		trainers:     trainers,
		reservations: reservations,
		broker:       broker,
		requestTTL:   requestTTL,
		logger:       logger,
		metrics:      metrics,
	}
}

// Create submits a new PENDING request on behalf of the calling client.
func (s *Service) Create(ctx context.Context, actor model.Actor, input *model.CreateBookingRequestInput) (*model.BookingRequest, error) {
	if actor.Role != auth.RoleClient {
		return nil, apperrors.NewAuthorization("only clients may create booking requests")
	}
	if input.LatestDate.Before(input.EarliestDate) {
		return nil, apperrors.NewFieldValidation("latest_date", "must not precede earliest_date")
	}

	prefs := input.Preferences()
	now := time.Now()

	req := &model.BookingRequest{
		ClientID:            actor.ID,
		TrainerID:           input.TrainerID,
		SessionType:         input.SessionType,
		DurationMinutes:     input.DurationMinutes,
		PreferredTimes:      pq.StringArray(input.PreferredTimes),
		AvoidTimes:          pq.StringArray(input.AvoidTimes),
		AllowWeekends:       prefs.AllowWeekends,
		AllowEvenings:       prefs.AllowEvenings,
		EarliestDate:        input.EarliestDate,
		LatestDate:          input.LatestDate,
		MaxBudgetPerSession: input.MaxBudgetPerSession,
		BudgetPreference:    input.BudgetPreference,
		PriceSensitivity:    prefs.PriceSensitivity,
		MinExperience:       input.MinExperience,
		MinRating:           input.MinRating,
		SpecialtyPreference: input.SpecialtyPreference,
		Status:              model.RequestStatusPending,
		ExpiresAt:           now.Add(s.requestTTL),
		ReservationToken:    input.ReservationToken,
	}
	for _, d := range input.PreferredDays {
		req.PreferredDays = append(req.PreferredDays, int64(d))
	}
	for _, id := range input.SlotIDs {
		req.RequestedSlotIDs = append(req.RequestedSlotIDs, id.String())
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	s.countTransition(string(model.RequestStatusPending))
	s.publish(ctx, EventRequestCreated, req)
	return req, nil
}

// Get returns a request visible to the calling actor.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.BookingRequest, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayView(actor, req) {
		return nil, apperrors.NewAuthorization("not a participant in this booking request")
	}
	return req, nil
}

// List returns requests filtered to the calling actor's side.
func (s *Service) List(ctx context.Context, actor model.Actor, status model.BookingRequestStatus) ([]*model.BookingRequest, error) {
	filters := &repository.BookingRequestFilters{Status: status}
	switch actor.Role {
	case auth.RoleClient:
		filters.ClientID = &actor.ID
	case auth.RoleTrainer:
		filters.TrainerID = &actor.ID
	}
	return s.requests.List(ctx, filters)
}

// Approve confirms a PENDING request against a target slot set. The
// conflict re-check and the state transitions run as one transaction,
// so a slot that just became unavailable fails with a conflict and the
// request stays PENDING.
func (s *Service) Approve(ctx context.Context, actor model.Actor, id uuid.UUID, input *model.ApproveBookingRequestInput) (*model.Booking, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requirePending(req); err != nil {
		return nil, err
	}

	slotIDs := input.SlotIDs
	if len(slotIDs) == 0 {
		slotIDs, err = parseSlotIDs(req.RequestedSlotIDs)
		if err != nil {
			return nil, err
		}
	}
	if len(slotIDs) == 0 {
		return nil, apperrors.NewFieldValidation("slot_ids", "no target slot for approval")
	}

	slots, start, end, trainerID, err := s.loadTargetSlots(ctx, slotIDs)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != nil && *req.TrainerID != trainerID {
		return nil, apperrors.NewFieldValidation("slot_ids", "slot belongs to a different trainer")
	}

	if actor.Role != auth.RoleTrainer || actor.ID != trainerID {
		return nil, apperrors.NewAuthorization("only the addressed trainer may approve this request")
	}

	trainer, err := s.trainers.Get(ctx, trainerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("trainer", err)
		}
		return nil, err
	}

	booking := &model.Booking{
		ClientID:  req.ClientID,
		TrainerID: trainerID,
		RequestID: &req.ID,
		StartTime: start,
		EndTime:   end,
		Status:    model.BookingStatusConfirmed,
		Cost:      trainer.SessionCost(req.DurationMinutes),
		Notes:     input.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Serialize approvals touching this client so two overlapping
		// bookings with different trainers cannot both pass the guard.
		if err := s.bookings.LockOwner(ctx, tx, req.ClientID); err != nil {
			return err
		}

		conflict, err := s.conflicts.HasConflictTx(ctx, tx, trainerID, req.ClientID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return apperrors.NewConflict("slot just became unavailable: overlapping booking exists", nil)
		}

		booking.ID = uuid.New()
		claimed, err := s.slots.ClaimForBooking(ctx, tx, slotIDs, booking.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return apperrors.NewConflict("slot just became unavailable", nil)
		}

		if err := s.bookings.Create(ctx, tx, booking); err != nil {
			return err
		}

		approved, err := s.requests.MarkApproved(ctx, tx, req.ID, slotIDs, booking.ID)
		if err != nil {
			return err
		}
		if !approved {
			// Lost the race against expiry or another decision.
			return apperrors.NewExpired("request is no longer pending")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.releaseReservation(ctx, req, slotIDs)
	s.countTransition(string(model.RequestStatusApproved))
	s.publish(ctx, EventRequestApproved, booking)

	if s.logger != nil {
		s.logger.Info("booking request approved",
			"request_id", req.ID.String(),
			"booking_id", booking.ID.String(),
			"slots", len(slots))
	}
	return booking, nil
}

// Reject declines a PENDING request. The reason is required and the
// reservation, if any, is released immediately.
func (s *Service) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.BookingRequest, error) {
	if reason == "" {
		return nil, apperrors.NewFieldValidation("reason", "is required")
	}

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requirePending(req); err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleTrainer {
		return nil, apperrors.NewAuthorization("only trainers may reject booking requests")
	}
	if req.TrainerID != nil && *req.TrainerID != actor.ID {
		return nil, apperrors.NewAuthorization("request is addressed to a different trainer")
	}

	rejected, err := s.requests.MarkRejected(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	if !rejected {
		return nil, apperrors.NewExpired("request is no longer pending")
	}

	slotIDs, _ := parseSlotIDs(req.RequestedSlotIDs)
	s.releaseReservation(ctx, req, slotIDs)
	s.countTransition(string(model.RequestStatusRejected))
	s.publish(ctx, EventRequestRejected, req)

	return s.getRequest(ctx, id)
}

// CancelRequest withdraws a PENDING request. Cancelling one that is
// already terminal returns its current state without error.
func (s *Service) CancelRequest(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.BookingRequest, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleClient || actor.ID != req.ClientID {
		return nil, apperrors.NewAuthorization("only the owning client may cancel this request")
	}

	if req.Status.Terminal() {
		return req, nil
	}

	cancelled, err := s.requests.MarkCancelled(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	if cancelled {
		slotIDs, _ := parseSlotIDs(req.RequestedSlotIDs)
		s.releaseReservation(ctx, req, slotIDs)
		s.countTransition(string(model.RequestStatusCancelled))
	}

	return s.getRequest(ctx, id)
}

// CancelBooking cancels a CONFIRMED booking by either party and frees
// the slots it consumed. Idempotent on already-terminal bookings.
func (s *Service) CancelBooking(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.ID != booking.ClientID && actor.ID != booking.TrainerID {
		return nil, apperrors.NewAuthorization("not a participant in this booking")
	}

	if booking.Status != model.BookingStatusConfirmed {
		return booking, nil
	}

	cancelled, err := s.bookings.MarkCancelled(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	if cancelled {
		if err := s.slots.ReleaseBooking(ctx, id); err != nil {
			if s.logger != nil {
				s.logger.Error(err, "failed to free slots of cancelled booking", "booking_id", id.String())
			}
		}
		s.countTransition(string(model.BookingStatusCancelled))
		s.publish(ctx, EventBookingCancelled, booking)
	}

	return s.getBooking(ctx, id)
}

// CompleteBooking marks a CONFIRMED booking as COMPLETED.
func (s *Service) CompleteBooking(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != auth.RoleTrainer || actor.ID != booking.TrainerID {
		return nil, apperrors.NewAuthorization("only the booked trainer may complete this booking")
	}
	if booking.Status == model.BookingStatusCompleted {
		return booking, nil
	}
	if booking.Status != model.BookingStatusConfirmed {
		return nil, apperrors.NewConflict("only confirmed bookings can be completed", nil)
	}

	if _, err := s.bookings.MarkCompleted(ctx, id); err != nil {
		return nil, err
	}
	s.countTransition(string(model.BookingStatusCompleted))
	return s.getBooking(ctx, id)
}

// ExpireDue transitions every overdue PENDING request to EXPIRED and
// releases any reservations they held. Safe to run concurrently with
// approve and reject: the status guard makes the loser a no-op.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	expired, err := s.requests.ExpireDue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, req := range expired {
		slotIDs, _ := parseSlotIDs(req.RequestedSlotIDs)
		s.releaseReservation(ctx, req, slotIDs)
		s.publish(ctx, EventRequestExpired, req)
		if s.metrics != nil {
			s.metrics.RequestsExpired.Inc()
		}
	}

	if len(expired) > 0 && s.logger != nil {
		s.logger.Info("expired overdue booking requests", "count", len(expired))
	}
	return len(expired), nil
}

// GetBooking returns a booking visible to either participant.
func (s *Service) GetBooking(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != booking.ClientID && actor.ID != booking.TrainerID {
		return nil, apperrors.NewAuthorization("not a participant in this booking")
	}
	return booking, nil
}

func (s *Service) getRequest(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("booking request", err)
		}
		return nil, err
	}
	return req, nil
}

func (s *Service) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("booking", err)
		}
		return nil, err
	}
	return booking, nil
}

// requirePending enforces that decisions only act on live requests. An
// overdue request reads as expired even before the sweeper reaches it.
func (s *Service) requirePending(req *model.BookingRequest) error {
	if req.Status == model.RequestStatusExpired || (req.Status == model.RequestStatusPending && time.Now().After(req.ExpiresAt)) {
		return apperrors.NewExpired("booking request has expired")
	}
	if req.Status.Terminal() {
		return apperrors.NewExpired(fmt.Sprintf("booking request is already %s", req.Status))
	}
	return nil
}

func (s *Service) mayView(actor model.Actor, req *model.BookingRequest) bool {
	if actor.ID == req.ClientID {
		return true
	}
	if actor.Role == auth.RoleTrainer && (req.TrainerID == nil || *req.TrainerID == actor.ID) {
		return true
	}
	return false
}

// loadTargetSlots fetches and validates the approval target: all slots
// must exist, share one trainer, and form a gap-free run.
func (s *Service) loadTargetSlots(ctx context.Context, ids []uuid.UUID) ([]*model.TimeSlot, time.Time, time.Time, uuid.UUID, error) {
	var (
		slots     []*model.TimeSlot
		trainerID uuid.UUID
	)
	for _, id := range ids {
		slot, err := s.slots.Get(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, time.Time{}, time.Time{}, uuid.Nil, apperrors.NewNotFound("slot", err)
			}
			return nil, time.Time{}, time.Time{}, uuid.Nil, err
		}
		if trainerID == uuid.Nil {
			trainerID = slot.TrainerID
		} else if trainerID != slot.TrainerID {
			return nil, time.Time{}, time.Time{}, uuid.Nil, apperrors.NewFieldValidation("slot_ids", "slots span multiple trainers")
		}
		slots = append(slots, slot)
	}

	start, end := slots[0].StartTime, slots[0].EndTime
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].EndTime.Equal(slots[i].StartTime) {
			return nil, time.Time{}, time.Time{}, uuid.Nil, apperrors.NewFieldValidation("slot_ids", "slots are not contiguous")
		}
		end = slots[i].EndTime
	}
	return slots, start, end, trainerID, nil
}

func (s *Service) releaseReservation(ctx context.Context, req *model.BookingRequest, slotIDs []uuid.UUID) {
	if s.reservations == nil || req.ReservationToken == nil || len(slotIDs) == 0 {
		return
	}
	if err := s.reservations.ReleaseAll(ctx, slotIDs, *req.ReservationToken); err != nil && s.logger != nil {
		s.logger.Error(err, "failed to release reservation", "request_id", req.ID.String())
	}
}

func (s *Service) countTransition(toStatus string) {
	if s.metrics != nil {
		s.metrics.RequestTransitions.WithLabelValues(toStatus).Inc()
	}
}

func (s *Service) publish(ctx context.Context, channel string, payload interface{}) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, channel, payload); err != nil && s.logger != nil {
		s.logger.Error(err, "failed to publish lifecycle event", "channel", channel)
	}
}

func parseSlotIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, apperrors.NewFieldValidation("slot_ids", "contains a malformed id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
