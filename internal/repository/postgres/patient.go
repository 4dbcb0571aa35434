package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db, m)}
}

const patientColumns = `
	id, patient_id, first_name, last_name, date_of_birth, gender, email,
	phone, address, emergency_contact, insurance, medical_history,
	assigned_doctor_id, status, created_by, updated_by, deleted_by,
	created_at, updated_at, deleted_at
`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, patient_id, first_name, last_name, date_of_birth, gender,
			email, phone, address, emergency_contact, insurance,
			medical_history, assigned_doctor_id, status, created_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17
		)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.exec(ctx, "patient_create", query,
		patient.ID,
		patient.PatientID,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Gender,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.EmergencyContactJSON,
		patient.InsuranceJSON,
		patient.MedicalHistoryJSON,
		patient.AssignedDoctorID,
		patient.Status,
		patient.CreatedBy,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "patients_email_key"):
			return repository.ErrDuplicateEmail
		case uniqueViolation(err, "patients_patient_id_key"):
			return repository.ErrDuplicatePatientID
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.get(ctx, "patient_get", &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

// GetByEmail matches against every patient regardless of status: a
// soft-deleted patient still holds its email.
func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE email = $1`
	var patient model.Patient
	if err := r.get(ctx, "patient_get_by_email", &patient, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient by email: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			first_name = $1, last_name = $2, email = $3, phone = $4,
			address = $5, emergency_contact = $6, insurance = $7,
			medical_history = $8, status = $9, updated_by = $10,
			deleted_by = $11, deleted_at = $12, updated_at = $13
		WHERE id = $14
	`
	patient.UpdatedAt = time.Now()

	result, err := r.exec(ctx, "patient_update", query,
		patient.FirstName,
		patient.LastName,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.EmergencyContactJSON,
		patient.InsuranceJSON,
		patient.MedicalHistoryJSON,
		patient.Status,
		patient.UpdatedBy,
		patient.DeletedBy,
		patient.DeletedAt,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		if uniqueViolation(err, "patients_email_key") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns one page of patients, newest first. The medical-history
// notes field is stripped in the query so it can never reach a listing
// response.
func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int64, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		where += fmt.Sprintf(
			" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			n, n, n, n,
		)
	}

	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM patients` + where
	if err := r.get(ctx, "patient_count", &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	args = append(args, filters.Limit, filters.Offset())
	query := `
		SELECT
			id, patient_id, first_name, last_name, date_of_birth, gender,
			email, phone, address, emergency_contact, insurance,
			medical_history - 'notes' AS medical_history,
			assigned_doctor_id, status, created_by, updated_by, deleted_by,
			created_at, updated_at, deleted_at
		FROM patients` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var patients []*model.Patient
	if err := r.selectAll(ctx, "patient_list", &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}

	return patients, total, nil
}
