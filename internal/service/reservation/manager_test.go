package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
)

type stubSlotRepo struct {
	slots map[uuid.UUID]*model.TimeSlot
}

func newStubSlotRepo(slots ...*model.TimeSlot) *stubSlotRepo {
	r := &stubSlotRepo{slots: make(map[uuid.UUID]*model.TimeSlot)}
	for _, s := range slots {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		r.slots[s.ID] = s
	}
	return r
}

func (r *stubSlotRepo) Create(context.Context, *model.TimeSlot) error          { return nil }
func (r *stubSlotRepo) CreateBatch(context.Context, []*model.TimeSlot) error   { return nil }
func (r *stubSlotRepo) ReleaseBooking(context.Context, uuid.UUID) error        { return nil }
func (r *stubSlotRepo) SetAvailability(context.Context, uuid.UUID, bool) (bool, error) {
	return false, nil
}
func (r *stubSlotRepo) Delete(context.Context, uuid.UUID) (bool, error) { return false, nil }
func (r *stubSlotRepo) ClaimForBooking(context.Context, *sqlx.Tx, []uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}
func (r *stubSlotRepo) ListByTrainer(context.Context, uuid.UUID, time.Time, time.Time) ([]*model.TimeSlot, error) {
	return nil, nil
}
func (r *stubSlotRepo) ListOpen(context.Context, uuid.UUID, time.Time, time.Time) ([]*model.TimeSlot, error) {
	return nil, nil
}

func (r *stubSlotRepo) Get(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return slot, nil
}

func (r *stubSlotRepo) GetByInterval(_ context.Context, trainerID uuid.UUID, start, end time.Time) (*model.TimeSlot, error) {
	for _, s := range r.slots {
		if s.TrainerID == trainerID && s.StartTime.Equal(start) && s.EndTime.Equal(end) {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func openSlot() *model.TimeSlot {
	start := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	return &model.TimeSlot{
		TrainerID:       uuid.New(),
		Date:            start.Truncate(24 * time.Hour),
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		IsAvailable:     true,
	}
}

func TestReserveWinsOnce(t *testing.T) {
	slot := openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), time.Minute, nil, nil)

	res, err := mgr.Reserve(context.Background(), slot.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, slot.ID, res.SlotID)
	assert.Equal(t, "client-a", res.HolderToken)

	_, err = mgr.Reserve(context.Background(), slot.ID, "client-b")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	slot := openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), time.Minute, nil, nil)

	const contenders = 32
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := mgr.Reserve(context.Background(), slot.ID, fmt.Sprintf("client-%d", n))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if apperrors.IsConflict(err) {
				losses++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, losses)
}

func TestReserveBookedSlot(t *testing.T) {
	slot := openSlot()
	slot.IsBooked = true
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), time.Minute, nil, nil)

	_, err := mgr.Reserve(context.Background(), slot.ID, "client-a")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestReserveUnknownSlot(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(), time.Minute, nil, nil)

	_, err := mgr.Reserve(context.Background(), uuid.New(), "client-a")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReleaseIsIdempotentAndOwnerChecked(t *testing.T) {
	slot := openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), time.Minute, nil, nil)
	ctx := context.Background()

	_, err := mgr.Reserve(ctx, slot.ID, "client-a")
	require.NoError(t, err)

	// A foreign token cannot release the hold.
	require.NoError(t, mgr.Release(ctx, slot.ID, "client-b"))
	held, err := mgr.IsHeld(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, held)

	// The owner can, and doing it twice is harmless.
	require.NoError(t, mgr.Release(ctx, slot.ID, "client-a"))
	require.NoError(t, mgr.Release(ctx, slot.ID, "client-a"))
	held, err = mgr.IsHeld(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, held)

	// Released slot is up for grabs again.
	_, err = mgr.Reserve(ctx, slot.ID, "client-b")
	assert.NoError(t, err)
}

func TestReserveExpiredHoldIsReacquirable(t *testing.T) {
	slot := openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), 10*time.Millisecond, nil, nil)
	ctx := context.Background()

	_, err := mgr.Reserve(ctx, slot.ID, "client-a")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = mgr.Reserve(ctx, slot.ID, "client-b")
	assert.NoError(t, err)
}

func TestReserveByInterval(t *testing.T) {
	slot := openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(slot), time.Minute, nil, nil)

	resp, err := mgr.ReserveByInterval(context.Background(), slot.TrainerID, slot.StartTime, slot.EndTime)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, resp.SlotID)
	assert.NotEmpty(t, resp.ReservationToken)

	// The interval is now held.
	_, err = mgr.ReserveByInterval(context.Background(), slot.TrainerID, slot.StartTime, slot.EndTime)
	assert.True(t, apperrors.IsConflict(err))

	_, err = mgr.ReserveByInterval(context.Background(), slot.TrainerID, slot.StartTime.Add(time.Hour), slot.EndTime.Add(time.Hour))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReleaseAll(t *testing.T) {
	a, b := openSlot(), openSlot()
	mgr := NewManager(NewMemoryStore(), newStubSlotRepo(a, b), time.Minute, nil, nil)
	ctx := context.Background()

	_, err := mgr.Reserve(ctx, a.ID, "token")
	require.NoError(t, err)
	_, err = mgr.Reserve(ctx, b.ID, "token")
	require.NoError(t, err)

	require.NoError(t, mgr.ReleaseAll(ctx, []uuid.UUID{a.ID, b.ID}, "token"))

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		held, err := mgr.IsHeld(ctx, id)
		require.NoError(t, err)
		assert.False(t, held)
	}
}
