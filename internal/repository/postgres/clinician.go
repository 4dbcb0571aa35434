package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type clinicianRepository struct {
	BaseRepository
}

func NewClinicianRepository(db *sqlx.DB, m *metrics.Metrics) repository.ClinicianRepository {
	return &clinicianRepository{NewBaseRepository(db, m)}
}

// Get returns the display-safe subset of a clinician. Clinician identity
// is owned by the staff service; this table is a read replica of the
// fields patient views need.
func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicianRef, error) {
	query := `SELECT id, first_name, last_name, specialization FROM clinicians WHERE id = $1`
	var ref model.ClinicianRef
	if err := r.get(ctx, "clinician_get", &ref, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &ref, nil
}
