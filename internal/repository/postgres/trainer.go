package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
)

// Trainer capabilities are a read-only projection synced from the
// trainer profile service; this repository never writes to it.

func (r *trainerRepository) Get(ctx context.Context, id uuid.UUID) (*model.TrainerCapability, error) {
	query := `
		SELECT id, name, specialties, price_per_hour, rating,
			   experience_years, location_types
		FROM trainer_capabilities
		WHERE id = $1
	`
	var trainer model.TrainerCapability
	err := r.db.GetContext(ctx, &trainer, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get trainer capability: %w", err)
	}
	return &trainer, nil
}

func (r *trainerRepository) List(ctx context.Context) ([]*model.TrainerCapability, error) {
	query := `
		SELECT id, name, specialties, price_per_hour, rating,
			   experience_years, location_types
		FROM trainer_capabilities
		ORDER BY id ASC
	`
	var trainers []*model.TrainerCapability
	err := r.db.SelectContext(ctx, &trainers, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainer capabilities: %w", err)
	}
	return trainers, nil
}
