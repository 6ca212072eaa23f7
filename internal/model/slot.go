package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a discrete bookable interval belonging to one trainer.
// Slots for one trainer on one day never overlap.
type TimeSlot struct {
	Base
	TrainerID       uuid.UUID  `db:"trainer_id" json:"trainer_id"`
	Date            time.Time  `db:"date" json:"date"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	IsAvailable     bool       `db:"is_available" json:"is_available"`
	IsBooked        bool       `db:"is_booked" json:"is_booked"`
	BookingID       *uuid.UUID `db:"booking_id" json:"booking_id,omitempty"`
}

// SlotCandidate is a bookable interval offered to a client: either a
// single stored slot, or a run of contiguous slots merged to cover a
// requested duration. SlotIDs lists every stored slot it consumes.
type SlotCandidate struct {
	TrainerID       uuid.UUID   `json:"trainer_id"`
	SlotIDs         []uuid.UUID `json:"slot_ids"`
	Date            time.Time   `json:"date"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	DurationMinutes int         `json:"duration_minutes"`
}

type CreateBulkSlotsRequest struct {
	TrainerID       uuid.UUID `json:"trainer_id"`
	StartDate       time.Time `json:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate         time.Time `json:"end_date" binding:"required" time_format:"2006-01-02"`
	DaysOfWeek      []int     `json:"days_of_week" binding:"required,min=1"`
	StartTime       string    `json:"start_time" binding:"required,clock"`
	EndTime         string    `json:"end_time" binding:"required,clock"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=15,max=240"`
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
