package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

type stubTrainerRepo struct {
	err error
}

func (s *stubTrainerRepo) Get(context.Context, uuid.UUID) (*model.TrainerCapability, error) {
	return &model.TrainerCapability{}, s.err
}

func (s *stubTrainerRepo) List(context.Context) ([]*model.TrainerCapability, error) {
	return nil, s.err
}

func TestInstrumentedRepositoryRecordsOperations(t *testing.T) {
	m := metrics.NewMetrics("postgres_test")
	stub := &stubTrainerRepo{}
	repo := InstrumentTrainerRepository(stub, m)

	_, err := repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("trainer_get", "success")))

	stub.err = errors.New("connection refused")
	_, err = repo.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("trainer_list", "error")))
}

func TestInstrumentWithoutMetricsIsPassThrough(t *testing.T) {
	stub := &stubTrainerRepo{}
	assert.Same(t, stub, InstrumentTrainerRepository(stub, nil))
}
