package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB, m *metrics.Metrics) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db, m)}
}

// Create appends one audit entry. The table carries no update or delete
// path in this codebase; rows are immutable once written.
func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, patient_id, action, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.exec(ctx, "audit_create", query,
		log.ID,
		log.UserID,
		log.PatientID,
		log.Action,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
