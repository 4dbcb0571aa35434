package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(db *sqlx.DB, m *metrics.Metrics) repository.MedicalRecordRepository {
	return &medicalRecordRepository{NewBaseRepository(db, m)}
}

// Create inserts the record and, when a diagnosis is supplied, appends it
// to the owning patient's medical history. Both writes share one
// transaction: a record either lands with its history entry or not at all.
func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord, diagnosis *model.Diagnosis) error {
	start := time.Now()
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO medical_records (
				id, patient_id, type, date, diagnosis, treatment,
				medications, notes, attachments, created_by, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			record.ID,
			record.PatientID,
			record.Type,
			record.Date,
			record.Diagnosis,
			record.Treatment,
			record.MedicationsJSON,
			record.Notes,
			record.AttachmentsJSON,
			record.CreatedBy,
			record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create medical record: %w", err)
		}

		if diagnosis == nil {
			return nil
		}

		entry, err := json.Marshal(diagnosis)
		if err != nil {
			return fmt.Errorf("failed to encode diagnosis: %w", err)
		}

		// jsonb append keeps the diagnoses sequence append-only at the
		// storage level.
		appendQuery := `
			UPDATE patients SET
				medical_history = jsonb_set(
					medical_history,
					'{diagnoses}',
					COALESCE(medical_history->'diagnoses', '[]'::jsonb) || $1::jsonb
				),
				updated_at = NOW()
			WHERE id = $2
		`
		result, err := tx.ExecContext(ctx, appendQuery, entry, record.PatientID)
		if err != nil {
			return fmt.Errorf("failed to append diagnosis: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to append diagnosis: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	r.observe("medical_record_create", start, err)
	return err
}

func (r *medicalRecordRepository) List(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `
		SELECT id, patient_id, type, date, diagnosis, treatment,
			medications, notes, attachments, created_by, created_at
		FROM medical_records
		WHERE patient_id = $1
	`
	args := []interface{}{patientID}

	if filters.Type != "" {
		args = append(args, filters.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	if !filters.StartDate.IsZero() {
		args = append(args, filters.StartDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}

	if !filters.EndDate.IsZero() {
		args = append(args, filters.EndDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += " ORDER BY date DESC"

	var records []*model.MedicalRecord
	if err := r.selectAll(ctx, "medical_record_list", &records, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}
