package availability

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
)

// ReservationChecker reports whether a slot currently carries an
// active hold. Expired holds read as absent.
type ReservationChecker interface {
	IsHeld(ctx context.Context, slotID uuid.UUID) (bool, error)
}

// Service is the source of truth for trainer time slots.
type Service struct {
	slots        repository.SlotRepository
	reservations ReservationChecker
	logger       *logger.Logger
}

func NewService(slots repository.SlotRepository, reservations ReservationChecker, logger *logger.Logger) *Service {
	return &Service{
		slots:        slots,
		reservations: reservations,
		logger:       logger,
	}
}

// CandidatesFor returns every bookable candidate for one trainer over
// [from, to] at the requested duration, excluding booked and reserved
// slots. When stored slots are finer-grained than the request, runs of
// contiguous free slots are merged into composite candidates covering
// exactly the requested duration.
func (s *Service) CandidatesFor(ctx context.Context, trainerID uuid.UUID, from, to time.Time, durationMinutes int) ([]model.SlotCandidate, error) {
	open, err := s.slots.ListOpen(ctx, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load open slots: %w", err)
	}

	free := make([]*model.TimeSlot, 0, len(open))
	for _, slot := range open {
		held, err := s.reservations.IsHeld(ctx, slot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check reservation for slot %s: %w", slot.ID, err)
		}
		if !held {
			free = append(free, slot)
		}
	}

	return mergeCandidates(free, durationMinutes), nil
}

// GetAvailableSlots is the caller-facing availability query.
func (s *Service) GetAvailableSlots(ctx context.Context, trainerID uuid.UUID, from, to time.Time, durationMinutes int) ([]model.SlotCandidate, error) {
	if to.Before(from) {
		return nil, apperrors.NewFieldValidation("end_date", "must not precede start_date")
	}
	return s.CandidatesFor(ctx, trainerID, from, to, durationMinutes)
}

// ListSlots returns the trainer's stored slots, booked or not, for
// trainer-side schedule management.
func (s *Service) ListSlots(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]*model.TimeSlot, error) {
	slots, err := s.slots.ListByTrainer(ctx, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// CreateBulkSlots generates non-overlapping slots for the requested
// weekdays across the date range. Slots that would overlap existing
// ones are skipped, preserving the per-trainer no-overlap invariant.
func (s *Service) CreateBulkSlots(ctx context.Context, req *model.CreateBulkSlotsRequest) ([]*model.TimeSlot, error) {
	startMin, err := parseClock(req.StartTime)
	if err != nil {
		return nil, apperrors.NewFieldValidation("start_time", err.Error())
	}
	endMin, err := parseClock(req.EndTime)
	if err != nil {
		return nil, apperrors.NewFieldValidation("end_time", err.Error())
	}
	if endMin <= startMin {
		return nil, apperrors.NewFieldValidation("end_time", "must be after start_time")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.NewFieldValidation("end_date", "must not precede start_date")
	}
	if req.DurationMinutes <= 0 {
		return nil, apperrors.NewFieldValidation("duration_minutes", "must be positive")
	}

	wanted := make(map[time.Weekday]bool, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			return nil, apperrors.NewFieldValidation("days_of_week", "values must be in 0..6")
		}
		wanted[time.Weekday(d)] = true
	}

	existing, err := s.slots.ListByTrainer(ctx, req.TrainerID, req.StartDate, req.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load existing slots: %w", err)
	}

	var created []*model.TimeSlot
	for day := req.StartDate; !day.After(req.EndDate); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}

		dayStart := day.Add(time.Duration(startMin) * time.Minute)
		dayEnd := day.Add(time.Duration(endMin) * time.Minute)
		step := time.Duration(req.DurationMinutes) * time.Minute

		for start := dayStart; !start.Add(step).After(dayEnd); start = start.Add(step) {
			end := start.Add(step)
			if overlapsAny(existing, start, end) {
				continue
			}
			created = append(created, &model.TimeSlot{
				TrainerID:       req.TrainerID,
				Date:            day,
				StartTime:       start,
				EndTime:         end,
				DurationMinutes: req.DurationMinutes,
				IsAvailable:     true,
			})
		}
	}

	if err := s.slots.CreateBatch(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to persist generated slots: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("bulk slots created",
			"trainer_id", req.TrainerID.String(),
			"count", len(created))
	}
	return created, nil
}

// SetAvailability toggles a slot's open flag. Booked slots cannot be
// toggled.
func (s *Service) SetAvailability(ctx context.Context, slotID uuid.UUID, available bool) error {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.IsBooked {
		return apperrors.NewConflict("slot is booked and cannot be modified", nil)
	}

	updated, err := s.slots.SetAvailability(ctx, slotID, available)
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.NewConflict("slot just became booked", nil)
	}
	return nil
}

// DeleteSlot removes an unbooked slot.
func (s *Service) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.IsBooked {
		return apperrors.NewConflict("slot is booked and cannot be deleted", nil)
	}

	deleted, err := s.slots.Delete(ctx, slotID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewConflict("slot just became booked", nil)
	}
	return nil
}

func (s *Service) getSlot(ctx context.Context, slotID uuid.UUID) (*model.TimeSlot, error) {
	slot, err := s.slots.Get(ctx, slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("slot", err)
		}
		return nil, err
	}
	return slot, nil
}

// mergeCandidates walks each day's ordered slot sequence, finds
// maximal gap-free runs, and emits every window that covers exactly
// the requested duration together with the slot ids it consumes.
func mergeCandidates(slots []*model.TimeSlot, durationMinutes int) []model.SlotCandidate {
	byDay := make(map[string][]*model.TimeSlot)
	var dayOrder []string
	for _, slot := range slots {
		key := slot.StartTime.Format("2006-01-02")
		if _, seen := byDay[key]; !seen {
			dayOrder = append(dayOrder, key)
		}
		byDay[key] = append(byDay[key], slot)
	}

	var candidates []model.SlotCandidate
	for _, key := range dayOrder {
		day := byDay[key]
		for start := 0; start < len(day); start++ {
			total := 0
			var ids []uuid.UUID
			for i := start; i < len(day); i++ {
				if i > start && !day[i-1].EndTime.Equal(day[i].StartTime) {
					break
				}
				total += day[i].DurationMinutes
				ids = append(ids, day[i].ID)
				if total == durationMinutes {
					candidates = append(candidates, model.SlotCandidate{
						TrainerID:       day[start].TrainerID,
						SlotIDs:         append([]uuid.UUID(nil), ids...),
						Date:            day[start].Date,
						StartTime:       day[start].StartTime,
						EndTime:         day[i].EndTime,
						DurationMinutes: durationMinutes,
					})
					break
				}
				if total > durationMinutes {
					break
				}
			}
		}
	}
	return candidates
}

func overlapsAny(existing []*model.TimeSlot, start, end time.Time) bool {
	for _, slot := range existing {
		if start.Before(slot.EndTime) && end.After(slot.StartTime) {
			return true
		}
	}
	return false
}

func parseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("must be HH:MM")
	}
	return t.Hour()*60 + t.Minute(), nil
}
