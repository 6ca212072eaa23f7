package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

// Instrumented repository decorators. Each wraps the plain postgres
// repository and records operation counts and latency per query.

func observe(m *metrics.Metrics, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatabaseOperations.WithLabelValues(op, status).Inc()
	m.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type instrumentedSlots struct {
	next repository.SlotRepository
	m    *metrics.Metrics
}

func InstrumentSlotRepository(next repository.SlotRepository, m *metrics.Metrics) repository.SlotRepository {
	if m == nil {
		return next
	}
	return &instrumentedSlots{next: next, m: m}
}

func (r *instrumentedSlots) Create(ctx context.Context, slot *model.TimeSlot) error {
	start := time.Now()
	err := r.next.Create(ctx, slot)
	observe(r.m, "slot_create", start, err)
	return err
}

func (r *instrumentedSlots) CreateBatch(ctx context.Context, slots []*model.TimeSlot) error {
	start := time.Now()
	err := r.next.CreateBatch(ctx, slots)
	observe(r.m, "slot_create_batch", start, err)
	return err
}

func (r *instrumentedSlots) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	start := time.Now()
	slot, err := r.next.Get(ctx, id)
	observe(r.m, "slot_get", start, err)
	return slot, err
}

func (r *instrumentedSlots) GetByInterval(ctx context.Context, trainerID uuid.UUID, from, to time.Time) (*model.TimeSlot, error) {
	start := time.Now()
	slot, err := r.next.GetByInterval(ctx, trainerID, from, to)
	observe(r.m, "slot_get_by_interval", start, err)
	return slot, err
}

func (r *instrumentedSlots) ListByTrainer(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	start := time.Now()
	slots, err := r.next.ListByTrainer(ctx, trainerID, from, to)
	observe(r.m, "slot_list", start, err)
	return slots, err
}

func (r *instrumentedSlots) ListOpen(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	start := time.Now()
	slots, err := r.next.ListOpen(ctx, trainerID, from, to)
	observe(r.m, "slot_list_open", start, err)
	return slots, err
}

func (r *instrumentedSlots) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	start := time.Now()
	ok, err := r.next.SetAvailability(ctx, id, available)
	observe(r.m, "slot_set_availability", start, err)
	return ok, err
}

func (r *instrumentedSlots) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	ok, err := r.next.Delete(ctx, id)
	observe(r.m, "slot_delete", start, err)
	return ok, err
}

func (r *instrumentedSlots) ClaimForBooking(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	start := time.Now()
	ok, err := r.next.ClaimForBooking(ctx, tx, ids, bookingID)
	observe(r.m, "slot_claim", start, err)
	return ok, err
}

func (r *instrumentedSlots) ReleaseBooking(ctx context.Context, bookingID uuid.UUID) error {
	start := time.Now()
	err := r.next.ReleaseBooking(ctx, bookingID)
	observe(r.m, "slot_release", start, err)
	return err
}

type instrumentedRequests struct {
	next repository.BookingRequestRepository
	m    *metrics.Metrics
}

func InstrumentBookingRequestRepository(next repository.BookingRequestRepository, m *metrics.Metrics) repository.BookingRequestRepository {
	if m == nil {
		return next
	}
	return &instrumentedRequests{next: next, m: m}
}

func (r *instrumentedRequests) Create(ctx context.Context, req *model.BookingRequest) error {
	start := time.Now()
	err := r.next.Create(ctx, req)
	observe(r.m, "request_create", start, err)
	return err
}

func (r *instrumentedRequests) Get(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	start := time.Now()
	req, err := r.next.Get(ctx, id)
	observe(r.m, "request_get", start, err)
	return req, err
}

func (r *instrumentedRequests) List(ctx context.Context, filters *repository.BookingRequestFilters) ([]*model.BookingRequest, error) {
	start := time.Now()
	reqs, err := r.next.List(ctx, filters)
	observe(r.m, "request_list", start, err)
	return reqs, err
}

func (r *instrumentedRequests) MarkApproved(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	start := time.Now()
	ok, err := r.next.MarkApproved(ctx, tx, id, slotIDs, bookingID)
	observe(r.m, "request_mark_approved", start, err)
	return ok, err
}

func (r *instrumentedRequests) MarkRejected(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	start := time.Now()
	ok, err := r.next.MarkRejected(ctx, id, reason)
	observe(r.m, "request_mark_rejected", start, err)
	return ok, err
}

func (r *instrumentedRequests) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	start := time.Now()
	ok, err := r.next.MarkCancelled(ctx, id, reason)
	observe(r.m, "request_mark_cancelled", start, err)
	return ok, err
}

func (r *instrumentedRequests) ExpireDue(ctx context.Context, now time.Time) ([]*model.BookingRequest, error) {
	start := time.Now()
	reqs, err := r.next.ExpireDue(ctx, now)
	observe(r.m, "request_expire_due", start, err)
	return reqs, err
}

type instrumentedBookings struct {
	next repository.BookingRepository
	m    *metrics.Metrics
}

func InstrumentBookingRepository(next repository.BookingRepository, m *metrics.Metrics) repository.BookingRepository {
	if m == nil {
		return next
	}
	return &instrumentedBookings{next: next, m: m}
}

func (r *instrumentedBookings) Create(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error {
	start := time.Now()
	err := r.next.Create(ctx, tx, booking)
	observe(r.m, "booking_create", start, err)
	return err
}

func (r *instrumentedBookings) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	start := time.Now()
	booking, err := r.next.Get(ctx, id)
	observe(r.m, "booking_get", start, err)
	return booking, err
}

func (r *instrumentedBookings) ListByParty(ctx context.Context, party repository.Party, ownerID uuid.UUID, from, to time.Time) ([]*model.Booking, error) {
	start := time.Now()
	bookings, err := r.next.ListByParty(ctx, party, ownerID, from, to)
	observe(r.m, "booking_list", start, err)
	return bookings, err
}

func (r *instrumentedBookings) HasOverlap(ctx context.Context, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	begin := time.Now()
	ok, err := r.next.HasOverlap(ctx, party, ownerID, start, end)
	observe(r.m, "booking_overlap_check", begin, err)
	return ok, err
}

func (r *instrumentedBookings) HasOverlapTx(ctx context.Context, tx *sqlx.Tx, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	begin := time.Now()
	ok, err := r.next.HasOverlapTx(ctx, tx, party, ownerID, start, end)
	observe(r.m, "booking_overlap_check", begin, err)
	return ok, err
}

func (r *instrumentedBookings) LockOwner(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID) error {
	start := time.Now()
	err := r.next.LockOwner(ctx, tx, ownerID)
	observe(r.m, "booking_lock_owner", start, err)
	return err
}

func (r *instrumentedBookings) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	start := time.Now()
	ok, err := r.next.MarkCancelled(ctx, id, reason)
	observe(r.m, "booking_mark_cancelled", start, err)
	return ok, err
}

func (r *instrumentedBookings) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	ok, err := r.next.MarkCompleted(ctx, id)
	observe(r.m, "booking_mark_completed", start, err)
	return ok, err
}

type instrumentedTrainers struct {
	next repository.TrainerRepository
	m    *metrics.Metrics
}

func InstrumentTrainerRepository(next repository.TrainerRepository, m *metrics.Metrics) repository.TrainerRepository {
	if m == nil {
		return next
	}
	return &instrumentedTrainers{next: next, m: m}
}

func (r *instrumentedTrainers) Get(ctx context.Context, id uuid.UUID) (*model.TrainerCapability, error) {
	start := time.Now()
	trainer, err := r.next.Get(ctx, id)
	observe(r.m, "trainer_get", start, err)
	return trainer, err
}

func (r *instrumentedTrainers) List(ctx context.Context) ([]*model.TrainerCapability, error) {
	start := time.Now()
	trainers, err := r.next.List(ctx)
	observe(r.m, "trainer_list", start, err)
	return trainers, err
}
