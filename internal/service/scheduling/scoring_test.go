package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
)

func newTrainer(pricePerHour, rating float64, experience int, specialties ...string) *model.TrainerCapability {
	return &model.TrainerCapability{
		ID:              uuid.New(),
		Name:            "Test Trainer",
		Specialties:     pq.StringArray(specialties),
		PricePerHour:    pricePerHour,
		Rating:          rating,
		ExperienceYears: experience,
	}
}

func candidateAt(trainer *model.TrainerCapability, start time.Time, durationMinutes int) Candidate {
	return Candidate{
		Slot: model.SlotCandidate{
			TrainerID:       trainer.ID,
			SlotIDs:         []uuid.UUID{uuid.New()},
			Date:            start.Truncate(24 * time.Hour),
			StartTime:       start,
			EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
			DurationMinutes: durationMinutes,
		},
		Trainer: trainer,
	}
}

// Monday 2026-09-14.
func monday(hour int) time.Time {
	return time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
}

// Saturday 2026-09-19.
func saturday(hour int) time.Time {
	return time.Date(2026, 9, 19, hour, 0, 0, 0, time.UTC)
}

func TestHardFilterAvoidTime(t *testing.T) {
	scorer := NewScorer(150)
	cand := candidateAt(newTrainer(60, 4.5, 5), monday(9), 60)

	reason, ok := scorer.HardFilter(cand, model.SchedulingPreferences{
		AvoidTimes:       []string{"09:00"},
		AllowWeekends:    true,
		AllowEvenings:    true,
		PriceSensitivity: 1,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonAvoidTime, reason)
}

func TestHardFilterWeekend(t *testing.T) {
	scorer := NewScorer(150)
	cand := candidateAt(newTrainer(60, 4.5, 5), saturday(10), 60)

	reason, ok := scorer.HardFilter(cand, model.SchedulingPreferences{
		AllowWeekends: false,
		AllowEvenings: true,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonWeekendExcluded, reason)

	_, ok = scorer.HardFilter(cand, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: true,
	})
	assert.True(t, ok)
}

func TestHardFilterEvening(t *testing.T) {
	scorer := NewScorer(150)

	evening := candidateAt(newTrainer(60, 4.5, 5), monday(18), 60)
	reason, ok := scorer.HardFilter(evening, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: false,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonEveningExcluded, reason)

	// 17:00 is not evening yet.
	afternoon := candidateAt(newTrainer(60, 4.5, 5), monday(17), 60)
	_, ok = scorer.HardFilter(afternoon, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: false,
	})
	assert.True(t, ok)
}

func TestHardFilterTrainerMinimums(t *testing.T) {
	scorer := NewScorer(150)
	cand := candidateAt(newTrainer(60, 4.0, 3), monday(10), 60)

	reason, ok := scorer.HardFilter(cand, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: true,
		MinRating:     4.5,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonBelowRating, reason)

	reason, ok = scorer.HardFilter(cand, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: true,
		MinExperience: 5,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonBelowExperience, reason)

	// Exact minimums pass.
	_, ok = scorer.HardFilter(cand, model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: true,
		MinRating:     4.0,
		MinExperience: 3,
	})
	assert.True(t, ok)
}

func TestHardFilterBudget(t *testing.T) {
	scorer := NewScorer(150)
	budget := 50.0

	// 90/hr for 60 minutes costs 90 > 50.
	over := candidateAt(newTrainer(90, 4.5, 5), monday(10), 60)
	reason, ok := scorer.HardFilter(over, model.SchedulingPreferences{
		AllowWeekends:       true,
		AllowEvenings:       true,
		MaxBudgetPerSession: &budget,
	})
	assert.False(t, ok)
	assert.Equal(t, ReasonOverBudget, reason)

	// Exactly at budget passes.
	at := candidateAt(newTrainer(50, 4.5, 5), monday(10), 60)
	_, ok = scorer.HardFilter(at, model.SchedulingPreferences{
		AllowWeekends:       true,
		AllowEvenings:       true,
		MaxBudgetPerSession: &budget,
	})
	assert.True(t, ok)
}

func TestScorePerfectCandidate(t *testing.T) {
	scorer := NewScorer(150)
	trainer := newTrainer(0, 5.0, 10, "yoga")
	cand := candidateAt(trainer, monday(9), 60)

	score := scorer.Score(cand, model.SchedulingPreferences{
		PreferredTimes:      []string{"09:00"},
		PreferredDays:       []time.Weekday{time.Monday},
		SpecialtyPreference: "yoga",
		AllowWeekends:       true,
		AllowEvenings:       true,
		PriceSensitivity:    1,
	})

	// All five terms max out: 30+15+20+15+20.
	assert.InDelta(t, 100.0, score, 0.001)
}

func TestScoreTimeOfDayDecay(t *testing.T) {
	scorer := NewScorer(150)
	trainer := newTrainer(0, 5.0, 10)

	prefs := model.SchedulingPreferences{
		PreferredTimes:   []string{"09:00"},
		AllowWeekends:    true,
		AllowEvenings:    true,
		PriceSensitivity: 1,
	}

	exact := scorer.Score(candidateAt(trainer, monday(9), 60), prefs)
	twoHoursOff := scorer.Score(candidateAt(trainer, monday(11), 60), prefs)
	fourHoursOff := scorer.Score(candidateAt(trainer, monday(13), 60), prefs)

	// 120 minutes off costs half the 30-point term; 240 all of it.
	assert.InDelta(t, exact-15, twoHoursOff, 0.001)
	assert.InDelta(t, exact-30, fourHoursOff, 0.001)
}

func TestScoreNoPreferencesIsNeutral(t *testing.T) {
	scorer := NewScorer(150)
	trainer := newTrainer(0, 5.0, 10)
	cand := candidateAt(trainer, monday(9), 60)

	score := scorer.Score(cand, model.SchedulingPreferences{
		AllowWeekends:    true,
		AllowEvenings:    true,
		PriceSensitivity: 1,
	})

	// Absent preferences every preference term is a full match.
	assert.InDelta(t, 100.0, score, 0.001)
}

func TestScorePriceSensitivity(t *testing.T) {
	scorer := NewScorer(150)
	trainer := newTrainer(75, 5.0, 10)

	insensitive := scorer.Score(candidateAt(trainer, monday(9), 60), model.SchedulingPreferences{
		AllowWeekends: true,
		AllowEvenings: true,
	})
	sensitive := scorer.Score(candidateAt(trainer, monday(9), 60), model.SchedulingPreferences{
		AllowWeekends:    true,
		AllowEvenings:    true,
		PriceSensitivity: 1,
	})

	// 75/hr against the 150 reference leaves half the price term.
	assert.InDelta(t, 80.0, insensitive, 0.001)
	assert.InDelta(t, 90.0, sensitive, 0.001)
}

func TestScoreCheaperTrainerWinsOnPrice(t *testing.T) {
	scorer := NewScorer(150)
	prefs := model.SchedulingPreferences{
		AllowWeekends:    true,
		AllowEvenings:    true,
		PriceSensitivity: 1,
	}

	cheap := scorer.Score(candidateAt(newTrainer(50, 4.8, 5), monday(9), 60), prefs)
	pricey := scorer.Score(candidateAt(newTrainer(120, 4.8, 5), monday(9), 60), prefs)

	assert.Greater(t, cheap, pricey)
}

func TestLessDeterministicOrdering(t *testing.T) {
	trainerA := newTrainer(50, 5, 5)
	trainerB := newTrainer(50, 5, 5)

	a := ScoredCandidate{Candidate: candidateAt(trainerA, monday(9), 60), Score: 90}
	b := ScoredCandidate{Candidate: candidateAt(trainerB, monday(9), 60), Score: 80}

	// Higher score first.
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))

	// Equal score: earlier start first.
	b.Score = 90
	b.Slot.StartTime = monday(10)
	assert.True(t, Less(a, b))

	// Equal score and start: lower trainer id first.
	b.Slot.StartTime = monday(9)
	want := a.Slot.TrainerID.String() < b.Slot.TrainerID.String()
	assert.Equal(t, want, Less(a, b))
	assert.Equal(t, !want, Less(b, a))
}

func TestPriorityBuckets(t *testing.T) {
	assert.Equal(t, "High", PriorityBucket(80))
	assert.Equal(t, "High", PriorityBucket(95.5))
	assert.Equal(t, "Medium", PriorityBucket(79.99))
	assert.Equal(t, "Medium", PriorityBucket(50))
	assert.Equal(t, "Low", PriorityBucket(49.99))
	assert.Equal(t, "Low", PriorityBucket(0))
}
