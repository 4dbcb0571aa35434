package clinician

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
)

const (
	cacheTTL     = 15 * time.Minute
	cleanupEvery = 1 * time.Hour
)

// Directory resolves clinician identities to their display-safe subset
// (name and specialization). Lookups are cached: the same few doctors are
// resolved on almost every patient read.
type Directory struct {
	repo  repository.ClinicianRepository
	cache *cache.Cache
}

func NewDirectory(repo repository.ClinicianRepository) *Directory {
	return &Directory{
		repo:  repo,
		cache: cache.New(cacheTTL, cleanupEvery),
	}
}

func (d *Directory) Resolve(ctx context.Context, id uuid.UUID) (*model.ClinicianRef, error) {
	key := id.String()
	if cached, ok := d.cache.Get(key); ok {
		return cached.(*model.ClinicianRef), nil
	}

	ref, err := d.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d.cache.Set(key, ref, cache.DefaultExpiration)
	return ref, nil
}
