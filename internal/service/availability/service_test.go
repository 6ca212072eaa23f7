package availability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
)

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.TimeSlot
	order []uuid.UUID
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*model.TimeSlot)}
}

func (r *fakeSlotRepo) add(slot *model.TimeSlot) *model.TimeSlot {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	r.slots[slot.ID] = slot
	r.order = append(r.order, slot.ID)
	return slot
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *model.TimeSlot) error {
	r.add(slot)
	return nil
}

func (r *fakeSlotRepo) CreateBatch(_ context.Context, slots []*model.TimeSlot) error {
	for _, s := range slots {
		r.add(s)
	}
	return nil
}

func (r *fakeSlotRepo) Get(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return slot, nil
}

func (r *fakeSlotRepo) GetByInterval(_ context.Context, trainerID uuid.UUID, start, end time.Time) (*model.TimeSlot, error) {
	for _, id := range r.order {
		s := r.slots[id]
		if s.TrainerID == trainerID && s.StartTime.Equal(start) && s.EndTime.Equal(end) {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeSlotRepo) ListByTrainer(_ context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	var out []*model.TimeSlot
	for _, id := range r.order {
		s := r.slots[id]
		if s.TrainerID == trainerID && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ListOpen(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	all, _ := r.ListByTrainer(ctx, trainerID, from, to)
	var out []*model.TimeSlot
	for _, s := range all {
		if s.IsAvailable && !s.IsBooked {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) (bool, error) {
	slot, ok := r.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	slot.IsAvailable = available
	return true, nil
}

func (r *fakeSlotRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	slot, ok := r.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	delete(r.slots, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *fakeSlotRepo) ClaimForBooking(_ context.Context, _ *sqlx.Tx, ids []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	for _, id := range ids {
		slot, ok := r.slots[id]
		if !ok || slot.IsBooked || !slot.IsAvailable {
			return false, nil
		}
	}
	for _, id := range ids {
		r.slots[id].IsBooked = true
		r.slots[id].BookingID = &bookingID
	}
	return true, nil
}

func (r *fakeSlotRepo) ReleaseBooking(_ context.Context, bookingID uuid.UUID) error {
	for _, s := range r.slots {
		if s.BookingID != nil && *s.BookingID == bookingID {
			s.IsBooked = false
			s.BookingID = nil
		}
	}
	return nil
}

type fakeReservations struct {
	held map[uuid.UUID]bool
}

func (f *fakeReservations) IsHeld(_ context.Context, slotID uuid.UUID) (bool, error) {
	return f.held[slotID], nil
}

func day(hour, minute int) time.Time {
	return time.Date(2026, 9, 14, hour, minute, 0, 0, time.UTC)
}

func storedSlot(trainerID uuid.UUID, start time.Time, durationMinutes int) *model.TimeSlot {
	return &model.TimeSlot{
		TrainerID:       trainerID,
		Date:            start.Truncate(24 * time.Hour),
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		IsAvailable:     true,
	}
}

func window() (time.Time, time.Time) {
	return time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
}

func TestCandidatesForSingleSlots(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	repo.add(storedSlot(trainerID, day(9, 0), 60))
	repo.add(storedSlot(trainerID, day(10, 0), 60))

	svc := NewService(repo, &fakeReservations{}, nil)
	from, to := window()

	candidates, err := svc.CandidatesFor(context.Background(), trainerID, from, to, 60)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, day(9, 0), candidates[0].StartTime)
	assert.Len(t, candidates[0].SlotIDs, 1)
}

func TestCandidatesForMergesContiguousSlots(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	a := repo.add(storedSlot(trainerID, day(9, 0), 30))
	b := repo.add(storedSlot(trainerID, day(9, 30), 30))
	repo.add(storedSlot(trainerID, day(11, 0), 30))

	svc := NewService(repo, &fakeReservations{}, nil)
	from, to := window()

	candidates, err := svc.CandidatesFor(context.Background(), trainerID, from, to, 60)
	require.NoError(t, err)

	// Only 9:00+9:30 merge to a full hour; 11:00 has no neighbor.
	require.Len(t, candidates, 1)
	assert.Equal(t, day(9, 0), candidates[0].StartTime)
	assert.Equal(t, day(10, 0), candidates[0].EndTime)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, candidates[0].SlotIDs)
	assert.Equal(t, 60, candidates[0].DurationMinutes)
}

func TestCandidatesForSkipsGaps(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	repo.add(storedSlot(trainerID, day(9, 0), 30))
	// 15-minute gap breaks the run.
	repo.add(storedSlot(trainerID, day(9, 45), 30))

	svc := NewService(repo, &fakeReservations{}, nil)
	from, to := window()

	candidates, err := svc.CandidatesFor(context.Background(), trainerID, from, to, 60)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestCandidatesForExcludesHeldSlots(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	held := repo.add(storedSlot(trainerID, day(9, 0), 60))
	repo.add(storedSlot(trainerID, day(10, 0), 60))

	svc := NewService(repo, &fakeReservations{held: map[uuid.UUID]bool{held.ID: true}}, nil)
	from, to := window()

	candidates, err := svc.CandidatesFor(context.Background(), trainerID, from, to, 60)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, day(10, 0), candidates[0].StartTime)
}

func TestCandidatesForExcludesBookedAndClosed(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	booked := repo.add(storedSlot(trainerID, day(9, 0), 60))
	booked.IsBooked = true
	closed := repo.add(storedSlot(trainerID, day(10, 0), 60))
	closed.IsAvailable = false
	repo.add(storedSlot(trainerID, day(11, 0), 60))

	svc := NewService(repo, &fakeReservations{}, nil)
	from, to := window()

	candidates, err := svc.CandidatesFor(context.Background(), trainerID, from, to, 60)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, day(11, 0), candidates[0].StartTime)
}

func TestCreateBulkSlots(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	svc := NewService(repo, &fakeReservations{}, nil)

	created, err := svc.CreateBulkSlots(context.Background(), &model.CreateBulkSlotsRequest{
		TrainerID: trainerID,
		// Mon 2026-09-14 through Sun 2026-09-20.
		StartDate:       time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		DaysOfWeek:      []int{1, 3},
		StartTime:       "09:00",
		EndTime:         "12:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	// Monday and Wednesday, three hourly slots each.
	require.Len(t, created, 6)
	assert.Equal(t, day(9, 0), created[0].StartTime)
	assert.Equal(t, day(10, 0), created[0].EndTime)
	for _, slot := range created {
		assert.True(t, slot.IsAvailable)
		wd := slot.StartTime.Weekday()
		assert.True(t, wd == time.Monday || wd == time.Wednesday)
	}
}

func TestCreateBulkSlotsSkipsOverlapping(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	repo.add(storedSlot(trainerID, day(9, 0), 60))

	svc := NewService(repo, &fakeReservations{}, nil)

	created, err := svc.CreateBulkSlots(context.Background(), &model.CreateBulkSlotsRequest{
		TrainerID:       trainerID,
		StartDate:       time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		DaysOfWeek:      []int{1},
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	// The 9:00 hour already exists; only 10:00 is generated.
	require.Len(t, created, 1)
	assert.Equal(t, day(10, 0), created[0].StartTime)
}

func TestCreateBulkSlotsValidation(t *testing.T) {
	svc := NewService(newFakeSlotRepo(), &fakeReservations{}, nil)
	base := model.CreateBulkSlotsRequest{
		TrainerID:       uuid.New(),
		StartDate:       time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		DaysOfWeek:      []int{1},
		StartTime:       "09:00",
		EndTime:         "17:00",
		DurationMinutes: 60,
	}

	bad := base
	bad.StartTime = "9am"
	_, err := svc.CreateBulkSlots(context.Background(), &bad)
	assert.True(t, apperrors.IsValidation(err))

	bad = base
	bad.EndTime = "08:00"
	_, err = svc.CreateBulkSlots(context.Background(), &bad)
	assert.True(t, apperrors.IsValidation(err))

	bad = base
	bad.DaysOfWeek = []int{7}
	_, err = svc.CreateBulkSlots(context.Background(), &bad)
	assert.True(t, apperrors.IsValidation(err))

	bad = base
	bad.EndDate = bad.StartDate.AddDate(0, 0, -1)
	_, err = svc.CreateBulkSlots(context.Background(), &bad)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSetAvailability(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	slot := repo.add(storedSlot(trainerID, day(9, 0), 60))

	svc := NewService(repo, &fakeReservations{}, nil)

	require.NoError(t, svc.SetAvailability(context.Background(), slot.ID, false))
	assert.False(t, repo.slots[slot.ID].IsAvailable)

	// Booked slots refuse the toggle.
	slot.IsBooked = true
	err := svc.SetAvailability(context.Background(), slot.ID, true)
	assert.True(t, apperrors.IsConflict(err))

	err = svc.SetAvailability(context.Background(), uuid.New(), true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteSlot(t *testing.T) {
	repo := newFakeSlotRepo()
	trainerID := uuid.New()
	slot := repo.add(storedSlot(trainerID, day(9, 0), 60))
	booked := repo.add(storedSlot(trainerID, day(10, 0), 60))
	booked.IsBooked = true

	svc := NewService(repo, &fakeReservations{}, nil)

	require.NoError(t, svc.DeleteSlot(context.Background(), slot.ID))
	_, err := repo.Get(context.Background(), slot.ID)
	assert.Equal(t, sql.ErrNoRows, err)

	err = svc.DeleteSlot(context.Background(), booked.ID)
	assert.True(t, apperrors.IsConflict(err))
}
