package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type sequenceRepository struct {
	BaseRepository
}

func NewSequenceRepository(db *sqlx.DB, m *metrics.Metrics) repository.SequenceRepository {
	return &sequenceRepository{NewBaseRepository(db, m)}
}

// Next atomically increments the named counter and returns the new value.
// The upsert serializes concurrent callers on the counter row, so two
// requests can never observe the same value.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO sequences (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`
	var value int64
	if err := r.get(ctx, "sequence_next", &value, query, name); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}
	return value, nil
}
