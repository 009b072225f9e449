package services

import (
	"context"

	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
)

// DirectoryService serves the public listings. Only verified profiles are listed.
type DirectoryService struct {
	store repository.Store
	cache *CacheService
	log   logger.Logger
}

func NewDirectoryService(store repository.Store, cache *CacheService, log logger.Logger) *DirectoryService {
	return &DirectoryService{store: store, cache: cache, log: log}
}

func (s *DirectoryService) Psychologists(ctx context.Context) ([]models.Psychologist, error) {
	var cached []models.Psychologist
	if s.cache.Get(ctx, DirectoryPsychologistsKey, &cached) {
		return cached, nil
	}
	gen, cacheable := s.cache.Generation(ctx, DirectoryPsychologistsKey)
	list, err := s.store.ListPsychologists(ctx, models.VerificationVerified)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Psychologist{}
	}
	if cacheable {
		s.fill(ctx, DirectoryPsychologistsKey, gen, list)
	}
	return list, nil
}

func (s *DirectoryService) Clinics(ctx context.Context) ([]models.Clinic, error) {
	var cached []models.Clinic
	if s.cache.Get(ctx, DirectoryClinicsKey, &cached) {
		return cached, nil
	}
	gen, cacheable := s.cache.Generation(ctx, DirectoryClinicsKey)
	list, err := s.store.ListClinics(ctx, models.VerificationVerified)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Clinic{}
	}
	if cacheable {
		s.fill(ctx, DirectoryClinicsKey, gen, list)
	}
	return list, nil
}

// fill caches a listing read at generation gen. A verification change committed in between
// wins and the listing is not stored.
func (s *DirectoryService) fill(ctx context.Context, key string, gen int64, list interface{}) {
	stored, err := s.cache.SetIfGeneration(ctx, key, gen, list)
	if err != nil {
		s.log.WithError(err).Warn("failed to cache directory", map[string]interface{}{"key": key})
		return
	}
	if !stored {
		s.log.Debug("directory changed while listing, not caching", map[string]interface{}{"key": key})
	}
}
