package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed, scheduled session resulting from an approved
// request. It owns the time slots it consumed.
type Booking struct {
	Base
	ClientID     uuid.UUID     `db:"client_id" json:"client_id"`
	TrainerID    uuid.UUID     `db:"trainer_id" json:"trainer_id"`
	RequestID    *uuid.UUID    `db:"request_id" json:"request_id,omitempty"`
	StartTime    time.Time     `db:"start_time" json:"start_time"`
	EndTime      time.Time     `db:"end_time" json:"end_time"`
	Status       BookingStatus `db:"status" json:"status"`
	Cost         float64       `db:"cost" json:"cost"`
	Notes        string        `db:"notes" json:"notes,omitempty"`
	CancelReason *string       `db:"cancel_reason" json:"cancel_reason,omitempty"`
}
