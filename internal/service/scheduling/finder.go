package scheduling

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	apperrors "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

// CandidateSource yields bookable candidates for one trainer over a
// date range. Implemented by the availability service.
type CandidateSource interface {
	CandidatesFor(ctx context.Context, trainerID uuid.UUID, from, to time.Time, durationMinutes int) ([]model.SlotCandidate, error)
}

// TrainerDirectory is the read-only trainer capability lookup.
type TrainerDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.TrainerCapability, error)
	List(ctx context.Context) ([]*model.TrainerCapability, error)
}

// Finder orchestrates availability, conflict detection and scoring
// into ranked schedule suggestions. It is strictly read-only: it never
// reserves, mutates, or locks anything.
type Finder struct {
	source    CandidateSource
	trainers  TrainerDirectory
	conflicts *ConflictChecker
	scorer    *Scorer
	topK      int
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

const DefaultTopK = 10

func NewFinder(
	source CandidateSource,
	trainers TrainerDirectory,
	conflicts *ConflictChecker,
	scorer *Scorer,
	topK int,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Finder {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Finder{
		source:    source,
		trainers:  trainers,
		conflicts: conflicts,
		scorer:    scorer,
		topK:      topK,
		logger:    logger,
		metrics:   metrics,
	}
}

// FindOptimalSchedule returns the top-K candidates matching the
// preferences. Zero candidates is a normal, successful outcome with an
// explanatory message; the caller must branch on emptiness, not on
// error.
func (f *Finder) FindOptimalSchedule(ctx context.Context, clientID uuid.UUID, prefs model.SchedulingPreferences) (*model.ScheduleSuggestions, error) {
	if f.metrics != nil {
		timer := prometheus.NewTimer(f.metrics.ScheduleSearchLatency)
		defer timer.ObserveDuration()
	}

	if prefs.LatestDate.Before(prefs.EarliestDate) {
		return nil, apperrors.NewFieldValidation("latest_date", "must not precede earliest_date")
	}
	if prefs.DurationMinutes <= 0 {
		return nil, apperrors.NewFieldValidation("duration_minutes", "must be positive")
	}

	trainers, err := f.trainersInScope(ctx, prefs.TrainerID)
	if err != nil {
		return nil, err
	}

	var (
		scored     []ScoredCandidate
		examined   int
		rejections = map[RejectReason]int{}
	)

	// latest_date names an inclusive calendar day, so the query window
	// runs to the following midnight.
	windowEnd := endOfDay(prefs.LatestDate)

	for _, trainer := range trainers {
		candidates, err := f.source.CandidatesFor(ctx, trainer.ID, prefs.EarliestDate, windowEnd, prefs.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to pull candidates for trainer %s: %w", trainer.ID, err)
		}

		for _, slot := range candidates {
			examined++
			cand := Candidate{Slot: slot, Trainer: trainer}

			conflict, err := f.conflicts.HasConflict(ctx, trainer.ID, clientID, slot.StartTime, slot.EndTime)
			if err != nil {
				return nil, err
			}
			if conflict {
				rejections[ReasonConflict]++
				continue
			}

			if reason, ok := f.scorer.HardFilter(cand, prefs); !ok {
				rejections[reason]++
				continue
			}

			scored = append(scored, ScoredCandidate{
				Candidate: cand,
				Score:     f.scorer.Score(cand, prefs),
			})
		}
	}

	sort.Slice(scored, func(i, j int) bool { return Less(scored[i], scored[j]) })
	if len(scored) > f.topK {
		scored = scored[:f.topK]
	}

	result := f.buildSuggestions(scored, examined, rejections)

	if f.metrics != nil {
		f.metrics.ScheduleCandidates.Observe(float64(len(result.SuggestedSlots)))
		if len(result.SuggestedSlots) == 0 {
			f.metrics.ScheduleEmptyResults.Inc()
		}
	}
	if f.logger != nil {
		f.logger.Debug("schedule search finished",
			"client_id", clientID.String(),
			"examined", examined,
			"returned", len(result.SuggestedSlots))
	}

	return result, nil
}

// endOfDay maps any instant on a calendar day to midnight of the next
// day, in the instant's own location.
func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func (f *Finder) trainersInScope(ctx context.Context, trainerID *uuid.UUID) ([]*model.TrainerCapability, error) {
	if trainerID != nil {
		trainer, err := f.trainers.Get(ctx, *trainerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, apperrors.NewNotFound("trainer", err)
			}
			return nil, fmt.Errorf("failed to look up trainer: %w", err)
		}
		return []*model.TrainerCapability{trainer}, nil
	}

	trainers, err := f.trainers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	return trainers, nil
}

func (f *Finder) buildSuggestions(scored []ScoredCandidate, examined int, rejections map[RejectReason]int) *model.ScheduleSuggestions {
	suggestions := &model.ScheduleSuggestions{
		SuggestedSlots: make([]model.SuggestedSlot, 0, len(scored)),
	}

	for _, sc := range scored {
		suggestions.SuggestedSlots = append(suggestions.SuggestedSlots, model.SuggestedSlot{
			TrainerID:       sc.Slot.TrainerID,
			TrainerName:     sc.Trainer.Name,
			SlotIDs:         sc.Slot.SlotIDs,
			StartTime:       sc.Slot.StartTime,
			EndTime:         sc.Slot.EndTime,
			DurationMinutes: sc.Slot.DurationMinutes,
			Cost:            sc.Cost(),
			Score:           sc.Score,
			Priority:        PriorityBucket(sc.Score),
		})
	}

	if len(scored) > 0 {
		suggestions.ConfidenceScore = scored[0].Score / 100
		suggestions.Message = fmt.Sprintf("found %d matching slots", len(scored))
		return suggestions
	}

	if examined == 0 {
		suggestions.Message = "no available slots in the requested window"
		return suggestions
	}

	suggestions.Message = fmt.Sprintf("no slots matched your preferences: %s", dominantReason(rejections))
	return suggestions
}

// dominantReason names the filter that rejected the most candidates,
// so an empty result can explain itself.
func dominantReason(rejections map[RejectReason]int) RejectReason {
	var (
		top   RejectReason
		count int
	)
	for reason, n := range rejections {
		if n > count || (n == count && reason < top) {
			top = reason
			count = n
		}
	}
	if top == "" {
		top = ReasonConflict
	}
	return top
}
