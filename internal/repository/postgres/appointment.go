package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db, m)}
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, start_time, end_time, status, notes
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC
	`
	var appointments []*model.Appointment
	if err := r.selectAll(ctx, "appointment_list", &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
