package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TrainerCapability is a read-only projection of the external trainer
// profile service: just the attributes scoring and filtering need.
type TrainerCapability struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Specialties     pq.StringArray `db:"specialties" json:"specialties"`
	PricePerHour    float64        `db:"price_per_hour" json:"price_per_hour"`
	Rating          float64        `db:"rating" json:"rating"`
	ExperienceYears int            `db:"experience_years" json:"experience_years"`
	LocationTypes   pq.StringArray `db:"location_types" json:"location_types"`
}

// HasSpecialty reports whether the trainer covers the given training type.
func (t *TrainerCapability) HasSpecialty(specialty string) bool {
	for _, s := range t.Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}

// SessionCost is the price of a session of the given length.
func (t *TrainerCapability) SessionCost(durationMinutes int) float64 {
	return t.PricePerHour * float64(durationMinutes) / 60
}
