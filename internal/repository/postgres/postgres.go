package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
)

type slotRepository struct {
	db *sqlx.DB
}

type bookingRequestRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

type trainerRepository struct {
	db *sqlx.DB
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewBookingRequestRepository(db *sqlx.DB) repository.BookingRequestRepository {
	return &bookingRequestRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func NewTrainerRepository(db *sqlx.DB) repository.TrainerRepository {
	return &trainerRepository{db: db}
}
