package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/internal/service/audit"
	"github.com/clinicore/patient-registry/internal/service/clinician"
	"github.com/clinicore/patient-registry/internal/service/patientid"
	apperrors "github.com/clinicore/patient-registry/pkg/errors"
)

type PatientService interface {
	ListPatients(ctx context.Context, filters *model.PatientFilters) (*model.PatientPage, error)
	GetPatient(ctx context.Context, id uuid.UUID, actor *model.Actor, origin model.RequestOrigin) (*model.PatientDetail, error)
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest, actor *model.Actor, origin model.RequestOrigin) (*model.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest, actor *model.Actor, origin model.RequestOrigin) (*model.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID, actor *model.Actor, origin model.RequestOrigin) error
}

// createRetries bounds the insert retry loop that backstops identifier
// allocation. The atomic sequence makes collisions a pathological case
// (e.g. rows imported with hand-written identifiers), not a normal one.
const createRetries = 3

type Service struct {
	repo            repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	clinicians      *clinician.Directory
	allocator       *patientid.Allocator
	auditor         audit.Recorder
}

func NewService(
	repo repository.PatientRepository,
	appointmentRepo repository.AppointmentRepository,
	clinicians *clinician.Directory,
	allocator *patientid.Allocator,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		clinicians:      clinicians,
		allocator:       allocator,
		auditor:         auditor,
	}
}

// ListPatients returns one page of patients, newest first. Listings are
// not audited; only single-record views are.
func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) (*model.PatientPage, error) {
	filters.Normalize()

	patients, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	for _, p := range patients {
		if err := s.unmarshalJSONFields(p); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to decode patient %s: %w", p.ID, err))
		}
		// Listings never carry medical-history notes.
		p.MedicalHistory.Notes = ""
	}

	return &model.PatientPage{
		Patients:   patients,
		Total:      total,
		TotalPages: filters.TotalPages(total),
		Page:       filters.Page,
	}, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID, actor *model.Actor, origin model.RequestOrigin) (*model.PatientDetail, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.unmarshalJSONFields(patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	detail := &model.PatientDetail{Patient: *patient}

	if patient.AssignedDoctorID != nil {
		doctor, err := s.clinicians.Resolve(ctx, *patient.AssignedDoctorID)
		if err != nil {
			// A dangling doctor reference degrades the view, it does not
			// fail the read.
			log.Warn().Err(err).Str("patient_id", patient.PatientID).Msg("failed to resolve assigned doctor")
		} else {
			detail.AssignedDoctor = doctor
		}
	}

	appointments, err := s.appointmentRepo.ListByPatient(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	detail.Appointments = appointments

	s.auditOrAlarm(ctx, actor.ID, patient.ID, model.AuditActionView, origin)
	return detail, nil
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest, actor *model.Actor, origin model.RequestOrigin) (*model.Patient, error) {
	// Resolve the duplicate before allocating so a conflicting request
	// never consumes an identifier.
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("patient with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	patient := &model.Patient{
		Base:             model.Base{ID: uuid.New()},
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Insurance:        req.Insurance,
		MedicalHistory: model.MedicalHistory{
			BloodType:         req.BloodType,
			Allergies:         orEmpty(req.Allergies),
			ChronicConditions: orEmpty(req.ChronicConditions),
			Diagnoses:         []model.Diagnosis{},
		},
		Status:    string(model.PatientStatusActive),
		CreatedBy: actor.ID,
	}

	if actor.Role == model.RoleDoctor {
		doctorID := actor.ID
		patient.AssignedDoctorID = &doctorID
	}

	if err := s.marshalJSONFields(patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.insertWithFreshID(ctx, patient); err != nil {
		return nil, err
	}

	s.auditOrAlarm(ctx, actor.ID, patient.ID, model.AuditActionCreate, origin)
	return patient, nil
}

// insertWithFreshID allocates an identifier and inserts, retrying on an
// identifier collision. The unique constraint on patient_id is the final
// arbiter; the loop just picks the next sequence value and tries again.
func (s *Service) insertWithFreshID(ctx context.Context, patient *model.Patient) error {
	for attempt := 0; attempt < createRetries; attempt++ {
		id, err := s.allocator.Next(ctx)
		if err != nil {
			return apperrors.Internal(err)
		}
		patient.PatientID = id

		err = s.repo.Create(ctx, patient)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicateEmail):
			// Lost the race with a concurrent create for the same email.
			return apperrors.Conflict("patient with this email already exists")
		case errors.Is(err, repository.ErrDuplicatePatientID):
			s.allocator.RecordCollision()
			log.Warn().Str("patient_id", id).Int("attempt", attempt+1).Msg("patient identifier collision, retrying")
			continue
		default:
			return apperrors.Internal(err)
		}
	}
	return apperrors.Internal(fmt.Errorf("exhausted %d attempts to allocate a unique patient id", createRetries))
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest, actor *model.Actor, origin model.RequestOrigin) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.unmarshalJSONFields(patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	applyUpdates(patient, req)
	updatedBy := actor.ID
	patient.UpdatedBy = &updatedBy

	if err := s.marshalJSONFields(patient); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperrors.Conflict("patient with this email already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	s.auditOrAlarm(ctx, actor.ID, patient.ID, model.AuditActionUpdate, origin)
	return patient, nil
}

// DeletePatient deactivates a patient. The row is never removed: the
// status flips to inactive and deletion metadata is stamped.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID, actor *model.Actor, origin model.RequestOrigin) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient")
		}
		return apperrors.Internal(err)
	}

	now := time.Now()
	deletedBy := actor.ID
	patient.Status = string(model.PatientStatusInactive)
	patient.DeletedAt = &now
	patient.DeletedBy = &deletedBy

	if err := s.repo.Update(ctx, patient); err != nil {
		return apperrors.Internal(err)
	}

	s.auditOrAlarm(ctx, actor.ID, patient.ID, model.AuditActionDelete, origin)
	return nil
}

// applyUpdates copies the fixed allow-list of mutable fields. Fields the
// request leaves nil are untouched; anything outside the list never
// reaches this function.
func applyUpdates(patient *model.Patient, req *model.UpdatePatientRequest) {
	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.Insurance != nil {
		patient.Insurance = req.Insurance
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
}

// auditOrAlarm records the audit entry for a committed operation. A
// failed audit write never rolls the operation back; it raises the
// operator alarm instead.
func (s *Service) auditOrAlarm(ctx context.Context, userID, patientID uuid.UUID, action model.AuditAction, origin model.RequestOrigin) {
	if err := s.auditor.Record(ctx, userID, patientID, action, origin); err != nil {
		log.Error().Err(err).
			Str("action", string(action)).
			Str("patient", patientID.String()).
			Msg("audit entry lost")
	}
}

func (s *Service) marshalJSONFields(patient *model.Patient) error {
	if patient.EmergencyContact != nil {
		data, err := json.Marshal(patient.EmergencyContact)
		if err != nil {
			return err
		}
		patient.EmergencyContactJSON = data
	}

	if patient.Insurance != nil {
		data, err := json.Marshal(patient.Insurance)
		if err != nil {
			return err
		}
		patient.InsuranceJSON = data
	}

	data, err := json.Marshal(patient.MedicalHistory)
	if err != nil {
		return err
	}
	patient.MedicalHistoryJSON = data

	return nil
}

func (s *Service) unmarshalJSONFields(patient *model.Patient) error {
	if len(patient.EmergencyContactJSON) > 0 {
		var contact model.EmergencyContact
		if err := json.Unmarshal(patient.EmergencyContactJSON, &contact); err != nil {
			return err
		}
		patient.EmergencyContact = &contact
	}

	if len(patient.InsuranceJSON) > 0 {
		var insurance model.Insurance
		if err := json.Unmarshal(patient.InsuranceJSON, &insurance); err != nil {
			return err
		}
		patient.Insurance = &insurance
	}

	if len(patient.MedicalHistoryJSON) > 0 {
		if err := json.Unmarshal(patient.MedicalHistoryJSON, &patient.MedicalHistory); err != nil {
			return err
		}
	}

	return nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
