package scheduling

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
)

type fakeCandidateSource struct {
	byTrainer map[uuid.UUID][]model.SlotCandidate
}

func (f *fakeCandidateSource) CandidatesFor(_ context.Context, trainerID uuid.UUID, _, _ time.Time, _ int) ([]model.SlotCandidate, error) {
	return f.byTrainer[trainerID], nil
}

type fakeDirectory struct {
	trainers []*model.TrainerCapability
}

func (f *fakeDirectory) Get(_ context.Context, id uuid.UUID) (*model.TrainerCapability, error) {
	for _, t := range f.trainers {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDirectory) List(_ context.Context) ([]*model.TrainerCapability, error) {
	return f.trainers, nil
}

type fakeBookingRepo struct {
	repository.BookingRepository
	bookings []*model.Booking
}

func (f *fakeBookingRepo) HasOverlap(_ context.Context, party repository.Party, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	for _, b := range f.bookings {
		owner := b.TrainerID
		if party == repository.PartyClient {
			owner = b.ClientID
		}
		if owner == ownerID && b.Status != model.BookingStatusCancelled && Overlaps(b.StartTime, b.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func slotFor(trainerID uuid.UUID, start time.Time, durationMinutes int) model.SlotCandidate {
	return model.SlotCandidate{
		TrainerID:       trainerID,
		SlotIDs:         []uuid.UUID{uuid.New()},
		Date:            start.Truncate(24 * time.Hour),
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
}

func windowPrefs(durationMinutes int) model.SchedulingPreferences {
	return model.SchedulingPreferences{
		DurationMinutes:  durationMinutes,
		AllowWeekends:    true,
		AllowEvenings:    true,
		EarliestDate:     time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		LatestDate:       time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		PriceSensitivity: 1,
	}
}

func newTestFinder(source CandidateSource, dir TrainerDirectory, bookings *fakeBookingRepo, topK int) *Finder {
	return NewFinder(source, dir, NewConflictChecker(bookings), NewScorer(150), topK, nil, nil)
}

func TestFindOptimalScheduleBudgetFiltering(t *testing.T) {
	cheap := newTrainer(50, 4.5, 5)
	mid := newTrainer(70, 4.5, 5)
	pricey := newTrainer(90, 4.5, 5)

	source := &fakeCandidateSource{byTrainer: map[uuid.UUID][]model.SlotCandidate{
		cheap.ID:  {slotFor(cheap.ID, monday(9), 60)},
		mid.ID:    {slotFor(mid.ID, monday(9), 60)},
		pricey.ID: {slotFor(pricey.ID, monday(9), 60)},
	}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{cheap, mid, pricey}}
	finder := newTestFinder(source, dir, &fakeBookingRepo{}, 10)

	budget := 60.0
	prefs := windowPrefs(60)
	prefs.MaxBudgetPerSession = &budget

	result, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), prefs)
	require.NoError(t, err)

	// Only the $50/hr trainer fits a $60 session budget.
	require.Len(t, result.SuggestedSlots, 1)
	assert.Equal(t, cheap.ID, result.SuggestedSlots[0].TrainerID)
	assert.InDelta(t, 50.0, result.SuggestedSlots[0].Cost, 0.001)
}

func TestFindOptimalScheduleRanksAndTruncates(t *testing.T) {
	trainer := newTrainer(50, 5, 5)
	var slots []model.SlotCandidate
	for hour := 8; hour < 16; hour++ {
		slots = append(slots, slotFor(trainer.ID, monday(hour), 60))
	}

	source := &fakeCandidateSource{byTrainer: map[uuid.UUID][]model.SlotCandidate{trainer.ID: slots}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{trainer}}
	finder := newTestFinder(source, dir, &fakeBookingRepo{}, 3)

	prefs := windowPrefs(60)
	prefs.PreferredTimes = []string{"09:00"}

	result, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), prefs)
	require.NoError(t, err)

	require.Len(t, result.SuggestedSlots, 3)
	// The 09:00 slot matches the preferred time exactly and leads.
	assert.Equal(t, monday(9), result.SuggestedSlots[0].StartTime)
	for i := 1; i < len(result.SuggestedSlots); i++ {
		assert.GreaterOrEqual(t, result.SuggestedSlots[i-1].Score, result.SuggestedSlots[i].Score)
	}
	assert.InDelta(t, result.SuggestedSlots[0].Score/100, result.ConfidenceScore, 0.001)
}

func TestFindOptimalScheduleSkipsConflicts(t *testing.T) {
	trainer := newTrainer(50, 5, 5)
	clientID := uuid.New()

	source := &fakeCandidateSource{byTrainer: map[uuid.UUID][]model.SlotCandidate{
		trainer.ID: {slotFor(trainer.ID, monday(9), 60), slotFor(trainer.ID, monday(11), 60)},
	}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{trainer}}
	bookings := &fakeBookingRepo{bookings: []*model.Booking{{
		ClientID:  clientID,
		TrainerID: uuid.New(),
		StartTime: monday(9),
		EndTime:   monday(10),
		Status:    model.BookingStatusConfirmed,
	}}}
	finder := newTestFinder(source, dir, bookings, 10)

	result, err := finder.FindOptimalSchedule(context.Background(), clientID, windowPrefs(60))
	require.NoError(t, err)

	// The client's own 9:00 booking removes that candidate even though
	// it is with a different trainer.
	require.Len(t, result.SuggestedSlots, 1)
	assert.Equal(t, monday(11), result.SuggestedSlots[0].StartTime)
}

func TestFindOptimalScheduleEmptyWindow(t *testing.T) {
	trainer := newTrainer(50, 5, 5)
	source := &fakeCandidateSource{byTrainer: map[uuid.UUID][]model.SlotCandidate{}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{trainer}}
	finder := newTestFinder(source, dir, &fakeBookingRepo{}, 10)

	result, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), windowPrefs(60))
	require.NoError(t, err)

	assert.Empty(t, result.SuggestedSlots)
	assert.Zero(t, result.ConfidenceScore)
	assert.Equal(t, "no available slots in the requested window", result.Message)
}

func TestFindOptimalScheduleEmptyAfterFilters(t *testing.T) {
	trainer := newTrainer(90, 5, 5)
	source := &fakeCandidateSource{byTrainer: map[uuid.UUID][]model.SlotCandidate{
		trainer.ID: {slotFor(trainer.ID, monday(9), 60)},
	}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{trainer}}
	finder := newTestFinder(source, dir, &fakeBookingRepo{}, 10)

	budget := 60.0
	prefs := windowPrefs(60)
	prefs.MaxBudgetPerSession = &budget

	result, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), prefs)
	require.NoError(t, err)

	assert.Empty(t, result.SuggestedSlots)
	assert.Contains(t, result.Message, string(ReasonOverBudget))
}

// boundedCandidateSource applies the repository's window bound
// (start_time >= from, end_time <= to) to its in-memory slots.
type boundedCandidateSource struct {
	slots []model.SlotCandidate
}

func (b *boundedCandidateSource) CandidatesFor(_ context.Context, trainerID uuid.UUID, from, to time.Time, _ int) ([]model.SlotCandidate, error) {
	var out []model.SlotCandidate
	for _, s := range b.slots {
		if s.TrainerID == trainerID && !s.StartTime.Before(from) && !s.EndTime.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestFindOptimalScheduleIncludesLastPreferenceDay(t *testing.T) {
	trainer := newTrainer(50, 5, 5)
	// windowPrefs runs through 2026-09-20; a mid-morning slot on that
	// final day must survive the repository's end_time bound.
	lastDay := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)

	source := &boundedCandidateSource{slots: []model.SlotCandidate{
		slotFor(trainer.ID, lastDay, 60),
	}}
	dir := &fakeDirectory{trainers: []*model.TrainerCapability{trainer}}
	finder := newTestFinder(source, dir, &fakeBookingRepo{}, 10)

	result, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), windowPrefs(60))
	require.NoError(t, err)

	require.Len(t, result.SuggestedSlots, 1)
	assert.Equal(t, lastDay, result.SuggestedSlots[0].StartTime)
}

func TestFindOptimalScheduleUnknownTrainer(t *testing.T) {
	finder := newTestFinder(
		&fakeCandidateSource{},
		&fakeDirectory{},
		&fakeBookingRepo{},
		10,
	)

	missing := uuid.New()
	prefs := windowPrefs(60)
	prefs.TrainerID = &missing

	_, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), prefs)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindOptimalScheduleInvalidWindow(t *testing.T) {
	finder := newTestFinder(&fakeCandidateSource{}, &fakeDirectory{}, &fakeBookingRepo{}, 10)

	prefs := windowPrefs(60)
	prefs.LatestDate = prefs.EarliestDate.AddDate(0, 0, -1)

	_, err := finder.FindOptimalSchedule(context.Background(), uuid.New(), prefs)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
