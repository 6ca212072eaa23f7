package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BookingRequestStatus string

const (
	RequestStatusPending   BookingRequestStatus = "pending"
	RequestStatusApproved  BookingRequestStatus = "approved"
	RequestStatusRejected  BookingRequestStatus = "rejected"
	RequestStatusCancelled BookingRequestStatus = "cancelled"
	RequestStatusExpired   BookingRequestStatus = "expired"
)

// Terminal reports whether no further transitions are allowed.
func (s BookingRequestStatus) Terminal() bool {
	return s != RequestStatusPending
}

// BookingRequest is a client-submitted, not-yet-decided proposal for a
// session. TrainerID nil means "any trainer".
type BookingRequest struct {
	Base
	ClientID            uuid.UUID            `db:"client_id" json:"client_id"`
	TrainerID           *uuid.UUID           `db:"trainer_id" json:"trainer_id,omitempty"`
	SessionType         string               `db:"session_type" json:"session_type"`
	DurationMinutes     int                  `db:"duration_minutes" json:"duration_minutes"`
	PreferredTimes      pq.StringArray       `db:"preferred_times" json:"preferred_times"`
	AvoidTimes          pq.StringArray       `db:"avoid_times" json:"avoid_times"`
	PreferredDays       pq.Int64Array        `db:"preferred_days" json:"preferred_days"`
	AllowWeekends       bool                 `db:"allow_weekends" json:"allow_weekends"`
	AllowEvenings       bool                 `db:"allow_evenings" json:"allow_evenings"`
	EarliestDate        time.Time            `db:"earliest_date" json:"earliest_date"`
	LatestDate          time.Time            `db:"latest_date" json:"latest_date"`
	MaxBudgetPerSession *float64             `db:"max_budget_per_session" json:"max_budget_per_session,omitempty"`
	BudgetPreference    string               `db:"budget_preference" json:"budget_preference,omitempty"`
	PriceSensitivity    float64              `db:"price_sensitivity" json:"price_sensitivity"`
	MinExperience       int                  `db:"trainer_experience_min" json:"trainer_experience_min"`
	MinRating           float64              `db:"trainer_rating_min" json:"trainer_rating_min"`
	SpecialtyPreference string               `db:"specialty_preference" json:"specialty_preference,omitempty"`
	Status              BookingRequestStatus `db:"status" json:"status"`
	ExpiresAt           time.Time            `db:"expires_at" json:"expires_at"`
	RequestedSlotIDs    pq.StringArray       `db:"requested_slot_ids" json:"requested_slot_ids,omitempty"`
	ResolvedSlotIDs     pq.StringArray       `db:"resolved_slot_ids" json:"resolved_slot_ids,omitempty"`
	ReservationToken    *string              `db:"reservation_token" json:"-"`
	RejectionReason     *string              `db:"rejection_reason" json:"rejection_reason,omitempty"`
	BookingID           *uuid.UUID           `db:"booking_id" json:"booking_id,omitempty"`
}

// Preferences extracts the scheduling preference record used by the
// scoring engine and finder.
func (r *BookingRequest) Preferences() SchedulingPreferences {
	days := make([]time.Weekday, 0, len(r.PreferredDays))
	for _, d := range r.PreferredDays {
		days = append(days, time.Weekday(d))
	}
	return SchedulingPreferences{
		TrainerID:           r.TrainerID,
		SessionType:         r.SessionType,
		DurationMinutes:     r.DurationMinutes,
		PreferredTimes:      r.PreferredTimes,
		AvoidTimes:          r.AvoidTimes,
		PreferredDays:       days,
		AllowWeekends:       r.AllowWeekends,
		AllowEvenings:       r.AllowEvenings,
		EarliestDate:        r.EarliestDate,
		LatestDate:          r.LatestDate,
		MaxBudgetPerSession: r.MaxBudgetPerSession,
		PriceSensitivity:    r.PriceSensitivity,
		MinExperience:       r.MinExperience,
		MinRating:           r.MinRating,
		SpecialtyPreference: r.SpecialtyPreference,
	}
}

// SchedulingPreferences is the explicit, typed preference record the
// scoring engine works on. Defaults (applied by the request DTOs):
// weekends and evenings allowed, price sensitivity 1.0.
type SchedulingPreferences struct {
	TrainerID           *uuid.UUID
	SessionType         string
	DurationMinutes     int
	PreferredTimes      []string
	AvoidTimes          []string
	PreferredDays       []time.Weekday
	AllowWeekends       bool
	AllowEvenings       bool
	EarliestDate        time.Time
	LatestDate          time.Time
	MaxBudgetPerSession *float64
	PriceSensitivity    float64
	MinExperience       int
	MinRating           float64
	SpecialtyPreference string
}

// FindScheduleRequest mirrors the caller contract for findOptimalSchedule.
type FindScheduleRequest struct {
	TrainerID           *uuid.UUID `json:"trainer_id"`
	SessionType         string     `json:"session_type"`
	DurationMinutes     int        `json:"duration_minutes" binding:"required,min=15,max=240"`
	PreferredTimes      []string   `json:"preferred_times"`
	AvoidTimes          []string   `json:"avoid_times"`
	PreferredDays       []int      `json:"preferred_days"`
	AllowWeekends       *bool      `json:"allow_weekends"`
	AllowEvenings       *bool      `json:"allow_evenings"`
	EarliestDate        time.Time  `json:"earliest_date" binding:"required"`
	LatestDate          time.Time  `json:"latest_date" binding:"required"`
	MaxBudgetPerSession *float64   `json:"max_budget_per_session"`
	BudgetPreference    string     `json:"budget_preference"`
	PriceSensitivity    *float64   `json:"price_sensitivity"`
	MinExperience       int        `json:"trainer_experience_min"`
	MinRating           float64    `json:"trainer_rating_min"`
	SpecialtyPreference string     `json:"specialty_preference"`
}

// Preferences applies documented defaults and returns the typed record.
func (r *FindScheduleRequest) Preferences() SchedulingPreferences {
	prefs := SchedulingPreferences{
		TrainerID:           r.TrainerID,
		SessionType:         r.SessionType,
		DurationMinutes:     r.DurationMinutes,
		PreferredTimes:      r.PreferredTimes,
		AvoidTimes:          r.AvoidTimes,
		AllowWeekends:       true,
		AllowEvenings:       true,
		EarliestDate:        r.EarliestDate,
		LatestDate:          r.LatestDate,
		MaxBudgetPerSession: r.MaxBudgetPerSession,
		PriceSensitivity:    1.0,
		MinExperience:       r.MinExperience,
		MinRating:           r.MinRating,
		SpecialtyPreference: r.SpecialtyPreference,
	}
	for _, d := range r.PreferredDays {
		prefs.PreferredDays = append(prefs.PreferredDays, time.Weekday(d))
	}
	if r.AllowWeekends != nil {
		prefs.AllowWeekends = *r.AllowWeekends
	}
	if r.AllowEvenings != nil {
		prefs.AllowEvenings = *r.AllowEvenings
	}
	if r.PriceSensitivity != nil {
		prefs.PriceSensitivity = *r.PriceSensitivity
	}
	return prefs
}

// CreateBookingRequestInput is the payload for createBookingRequest.
// SlotIDs carries the candidate the client picked from its suggestions;
// ReservationToken correlates a pre-request slot hold.
type CreateBookingRequestInput struct {
	FindScheduleRequest
	SlotIDs          []uuid.UUID `json:"slot_ids"`
	ReservationToken *string     `json:"reservation_token"`
}

type RejectBookingRequestInput struct {
	Reason string `json:"reason" binding:"required"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

type ApproveBookingRequestInput struct {
	SlotIDs []uuid.UUID `json:"slot_ids"`
	Notes   string      `json:"notes"`
}

// SuggestedSlot is one ranked candidate returned to the caller.
type SuggestedSlot struct {
	TrainerID       uuid.UUID   `json:"trainer_id"`
	TrainerName     string      `json:"trainer_name"`
	SlotIDs         []uuid.UUID `json:"slot_ids"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	DurationMinutes int         `json:"duration_minutes"`
	Cost            float64     `json:"cost"`
	Score           float64     `json:"score"`
	Priority        string      `json:"priority"`
}

// ScheduleSuggestions is the findOptimalSchedule result. An empty
// SuggestedSlots with a message is a normal outcome, not an error.
type ScheduleSuggestions struct {
	SuggestedSlots  []SuggestedSlot `json:"suggested_slots"`
	ConfidenceScore float64         `json:"confidence_score"`
	Message         string          `json:"message"`
}
