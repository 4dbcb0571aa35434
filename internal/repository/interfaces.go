package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicore/patient-registry/internal/model"
)

// Storage-level sentinel errors. Implementations translate driver errors
// into these so services stay independent of the persistence engine.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrDuplicatePatientID = errors.New("duplicate patient id")
)

// All repository interfaces in one file
type (
	// PatientRepository owns patient rows. Create enforces the email and
	// patientId uniqueness constraints; List never returns the
	// medical-history notes field.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int64, error)
	}

	// MedicalRecordRepository owns encounter rows. Create persists the
	// record and, when a diagnosis is attached, appends it to the owning
	// patient's medical history in the same transaction.
	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord, diagnosis *model.Diagnosis) error
		List(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
	}

	// AuditRepository appends compliance events. There is no update or
	// delete surface.
	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
	}

	// SequenceRepository hands out strictly increasing values for a named
	// counter. Next must be atomic under concurrent callers.
	SequenceRepository interface {
		Next(ctx context.Context, name string) (int64, error)
	}

	ClinicianRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.ClinicianRef, error)
	}

	AppointmentRepository interface {
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
	}
)
