package medical

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/internal/service/audit"
	"github.com/clinicore/patient-registry/internal/service/clinician"
	apperrors "github.com/clinicore/patient-registry/pkg/errors"
)

type MedicalRecordService interface {
	ListRecords(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters, actor *model.Actor, origin model.RequestOrigin) ([]*model.MedicalRecord, error)
	AddRecord(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicalRecordRequest, actor *model.Actor, origin model.RequestOrigin) (*model.MedicalRecord, error)
}

type Service struct {
	repo        repository.MedicalRecordRepository
	patientRepo repository.PatientRepository
	clinicians  *clinician.Directory
	auditor     audit.Recorder
	now         func() time.Time
}

func NewService(
	repo repository.MedicalRecordRepository,
	patientRepo repository.PatientRepository,
	clinicians *clinician.Directory,
	auditor audit.Recorder,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		clinicians:  clinicians,
		auditor:     auditor,
		now:         time.Now,
	}
}

func (s *Service) ListRecords(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters, actor *model.Actor, origin model.RequestOrigin) ([]*model.MedicalRecord, error) {
	records, err := s.repo.List(ctx, patientID, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	for _, record := range records {
		if err := s.unmarshalJSONFields(record); err != nil {
			return nil, apperrors.Internal(err)
		}
		creator, err := s.clinicians.Resolve(ctx, record.CreatedBy)
		if err != nil {
			log.Warn().Err(err).Str("record", record.ID.String()).Msg("failed to resolve record creator")
			continue
		}
		record.Creator = creator
	}

	s.auditOrAlarm(ctx, actor.ID, patientID, model.AuditActionViewRecords, origin)
	return records, nil
}

// AddRecord persists a new encounter for an existing patient. When the
// request carries a diagnosis, the patient's medical history gains a
// diagnosis entry in the same transaction as the record insert.
func (s *Service) AddRecord(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicalRecordRequest, actor *model.Actor, origin model.RequestOrigin) (*model.MedicalRecord, error) {
	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	record := &model.MedicalRecord{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		Type:        req.Type,
		Date:        now,
		Diagnosis:   req.Diagnosis,
		Treatment:   req.Treatment,
		Medications: orEmptyMedications(req.Medications),
		Notes:       req.Notes,
		Attachments: orEmptyStrings(req.Attachments),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
	}

	if err := s.marshalJSONFields(record); err != nil {
		return nil, apperrors.Internal(err)
	}

	var diagnosis *model.Diagnosis
	if req.Diagnosis != "" {
		diagnosis = &model.Diagnosis{
			Condition:     req.Diagnosis,
			DiagnosedDate: now,
			DiagnosedBy:   actor.ID,
		}
	}

	if err := s.repo.Create(ctx, record, diagnosis); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	s.auditOrAlarm(ctx, actor.ID, patient.ID, model.AuditActionAddRecord, origin)
	return record, nil
}

func (s *Service) auditOrAlarm(ctx context.Context, userID, patientID uuid.UUID, action model.AuditAction, origin model.RequestOrigin) {
	if err := s.auditor.Record(ctx, userID, patientID, action, origin); err != nil {
		log.Error().Err(err).
			Str("action", string(action)).
			Str("patient", patientID.String()).
			Msg("audit entry lost")
	}
}

func (s *Service) marshalJSONFields(record *model.MedicalRecord) error {
	medications, err := json.Marshal(record.Medications)
	if err != nil {
		return err
	}
	record.MedicationsJSON = medications

	attachments, err := json.Marshal(record.Attachments)
	if err != nil {
		return err
	}
	record.AttachmentsJSON = attachments
	return nil
}

func (s *Service) unmarshalJSONFields(record *model.MedicalRecord) error {
	record.Medications = []model.Medication{}
	record.Attachments = []string{}

	if len(record.MedicationsJSON) > 0 {
		if err := json.Unmarshal(record.MedicationsJSON, &record.Medications); err != nil {
			return err
		}
	}
	if len(record.AttachmentsJSON) > 0 {
		if err := json.Unmarshal(record.AttachmentsJSON, &record.Attachments); err != nil {
			return err
		}
	}

	// jsonb NULL decodes to nil slices; keep the arrays present in responses.
	if record.Medications == nil {
		record.Medications = []model.Medication{}
	}
	if record.Attachments == nil {
		record.Attachments = []string{}
	}
	return nil
}

func orEmptyMedications(values []model.Medication) []model.Medication {
	if values == nil {
		return []model.Medication{}
	}
	return values
}

func orEmptyStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
