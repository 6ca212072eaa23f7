package trainer

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository"
)

const (
	cacheTTL       = 5 * time.Minute
	cachePurge     = 10 * time.Minute
	listCacheKey   = "trainers:all"
	entryKeyPrefix = "trainer:"
)

// Service is a read-through cache over the trainer capability
// projection. Profiles change rarely; a short TTL keeps scoring cheap
// without serving stale ratings for long.
type Service struct {
	repo  repository.TrainerRepository
	cache *gocache.Cache
}

func NewService(repo repository.TrainerRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cachePurge),
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.TrainerCapability, error) {
	if cached, found := s.cache.Get(entryKeyPrefix + id.String()); found {
		return cached.(*model.TrainerCapability), nil
	}

	trainer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(entryKeyPrefix+id.String(), trainer)
	return trainer, nil
}

func (s *Service) List(ctx context.Context) ([]*model.TrainerCapability, error) {
	if cached, found := s.cache.Get(listCacheKey); found {
		return cached.([]*model.TrainerCapability), nil
	}

	trainers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(listCacheKey, trainers)
	for _, t := range trainers {
		s.cache.SetDefault(entryKeyPrefix+t.ID.String(), t)
	}
	return trainers, nil
}
