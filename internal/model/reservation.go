package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotReservation is a short-lived exclusive hold on a slot between
// suggestion and confirmation. At most one active reservation exists
// per slot; holds past ExpiresAt are treated as absent.
type SlotReservation struct {
	SlotID      uuid.UUID `json:"slot_id"`
	HolderToken string    `json:"holder_token"`
	ReservedAt  time.Time `json:"reserved_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReserveSlotRequest mirrors the caller contract for reserveSlot.
type ReserveSlotRequest struct {
	TrainerID uuid.UUID `json:"trainer_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type ReserveSlotResponse struct {
	ReservationToken string    `json:"reservation_token"`
	SlotID           uuid.UUID `json:"slot_id"`
	ExpiresAt        time.Time `json:"expires_at"`
}
