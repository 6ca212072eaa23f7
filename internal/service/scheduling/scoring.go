package scheduling

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
)

// Soft weights, summing to 100. The price term is additionally scaled
// by the request's price sensitivity in [0, 1], so a fully
// price-insensitive client contributes nothing on price and tops out
// at 80.
const (
	weightTimeOfDay = 30.0
	weightDayOfWeek = 15.0
	weightSpecialty = 20.0
	weightRating    = 15.0
	weightPrice     = 20.0
)

// Priority bucket thresholds, display use only.
const (
	priorityHighThreshold   = 80.0
	priorityMediumThreshold = 50.0
)

const eveningStartHour = 18

// nearestTimeWindow is how far, in minutes, a slot start can drift
// from the closest preferred time before its time-of-day score
// reaches zero.
const nearestTimeWindow = 240.0

// RejectReason names the hard filter that excluded a candidate.
type RejectReason string

const (
	ReasonAvoidTime       RejectReason = "start time in avoid list"
	ReasonWeekendExcluded RejectReason = "weekends excluded"
	ReasonEveningExcluded RejectReason = "evenings excluded"
	ReasonBelowRating     RejectReason = "trainer rating below minimum"
	ReasonBelowExperience RejectReason = "trainer experience below minimum"
	ReasonOverBudget      RejectReason = "session cost over budget"
	ReasonConflict        RejectReason = "time conflicts with an existing booking"
)

// Candidate pairs a bookable interval with its trainer's capabilities.
type Candidate struct {
	Slot    model.SlotCandidate
	Trainer *model.TrainerCapability
}

// Cost is the session price of this candidate.
func (c Candidate) Cost() float64 {
	return c.Trainer.SessionCost(c.Slot.DurationMinutes)
}

// ScoredCandidate is a candidate that survived every hard filter.
type ScoredCandidate struct {
	Candidate
	Score float64
}

// Scorer ranks (trainer, slot) candidates against a preference set.
type Scorer struct {
	referenceMaxCost float64
}

// NewScorer builds a scorer. referenceMaxCost is the price-fit ceiling
// used when the request has no budget cap.
func NewScorer(referenceMaxCost float64) *Scorer {
	return &Scorer{referenceMaxCost: referenceMaxCost}
}

// HardFilter returns the reason a candidate must be excluded outright,
// or ok=true if it may be scored.
func (s *Scorer) HardFilter(cand Candidate, prefs model.SchedulingPreferences) (RejectReason, bool) {
	start := cand.Slot.StartTime

	for _, avoid := range prefs.AvoidTimes {
		if clockEquals(start, avoid) {
			return ReasonAvoidTime, false
		}
	}

	if !prefs.AllowWeekends && isWeekend(start) {
		return ReasonWeekendExcluded, false
	}

	if !prefs.AllowEvenings && start.Hour() >= eveningStartHour {
		return ReasonEveningExcluded, false
	}

	if cand.Trainer.Rating < prefs.MinRating {
		return ReasonBelowRating, false
	}

	if cand.Trainer.ExperienceYears < prefs.MinExperience {
		return ReasonBelowExperience, false
	}

	if prefs.MaxBudgetPerSession != nil && cand.Cost() > *prefs.MaxBudgetPerSession {
		return ReasonOverBudget, false
	}

	return "", true
}

// Score rates a candidate in [0, 100]. Callers must run HardFilter
// first; scoring never excludes.
func (s *Scorer) Score(cand Candidate, prefs model.SchedulingPreferences) float64 {
	score := weightTimeOfDay*s.timeOfDayFit(cand.Slot.StartTime, prefs.PreferredTimes) +
		weightDayOfWeek*s.dayOfWeekFit(cand.Slot.StartTime, prefs.PreferredDays) +
		weightSpecialty*s.specialtyFit(cand.Trainer, prefs) +
		weightRating*clamp01(cand.Trainer.Rating/5) +
		weightPrice*s.priceFit(cand, prefs)

	return math.Round(score*100) / 100
}

// timeOfDayFit is 1.0 on an exact preferred-time match, decaying
// linearly with distance to the nearest preferred time. No preference
// means any time fits.
func (s *Scorer) timeOfDayFit(start time.Time, preferred []string) float64 {
	if len(preferred) == 0 {
		return 1.0
	}

	startMin := start.Hour()*60 + start.Minute()
	best := math.MaxFloat64
	for _, p := range preferred {
		pMin, err := parseClock(p)
		if err != nil {
			continue
		}
		dist := math.Abs(float64(startMin - pMin))
		if dist < best {
			best = dist
		}
	}
	if best == math.MaxFloat64 {
		return 1.0
	}
	return clamp01(1 - best/nearestTimeWindow)
}

func (s *Scorer) dayOfWeekFit(start time.Time, preferred []time.Weekday) float64 {
	if len(preferred) == 0 {
		return 1.0
	}
	for _, d := range preferred {
		if start.Weekday() == d {
			return 1.0
		}
	}
	return 0
}

func (s *Scorer) specialtyFit(trainer *model.TrainerCapability, prefs model.SchedulingPreferences) float64 {
	specialty := prefs.SpecialtyPreference
	if specialty == "" {
		specialty = prefs.SessionType
	}
	if specialty == "" {
		return 1.0
	}
	if trainer.HasSpecialty(specialty) {
		return 1.0
	}
	return 0
}

// priceFit is 1 - cost/referenceMax, scaled by price sensitivity. The
// reference ceiling is the budget cap when one is set.
func (s *Scorer) priceFit(cand Candidate, prefs model.SchedulingPreferences) float64 {
	refMax := s.referenceMaxCost
	if prefs.MaxBudgetPerSession != nil && *prefs.MaxBudgetPerSession > 0 {
		refMax = *prefs.MaxBudgetPerSession
	}
	if refMax <= 0 {
		return 0
	}
	fit := clamp01(1 - cand.Cost()/refMax)
	return fit * clamp01(prefs.PriceSensitivity)
}

// Less orders scored candidates deterministically: higher score first,
// then earlier start, then lower trainer id. Identical inputs always
// produce identical orderings.
func Less(a, b ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Slot.StartTime.Equal(b.Slot.StartTime) {
		return a.Slot.StartTime.Before(b.Slot.StartTime)
	}
	return a.Slot.TrainerID.String() < b.Slot.TrainerID.String()
}

// PriorityBucket maps a score onto the display label.
func PriorityBucket(score float64) string {
	switch {
	case score >= priorityHighThreshold:
		return "High"
	case score >= priorityMediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func clockEquals(t time.Time, clock string) bool {
	m, err := parseClock(clock)
	if err != nil {
		return false
	}
	return t.Hour()*60+t.Minute() == m
}

// parseClock converts "HH:MM" to minutes past midnight.
func parseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute in %q", clock)
	}
	return h*60 + m, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
