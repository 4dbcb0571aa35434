package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is one clinical encounter. Records are immutable once
// written; corrections are new records.
type MedicalRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Type      string    `db:"type" json:"type"`
	Date      time.Time `db:"date" json:"date"`
	Diagnosis string    `db:"diagnosis" json:"diagnosis"`
	Treatment string    `db:"treatment" json:"treatment"`
	Notes     string    `db:"notes" json:"notes"`

	MedicationsJSON json.RawMessage `db:"medications" json:"-"`
	AttachmentsJSON json.RawMessage `db:"attachments" json:"-"`

	Medications []Medication `db:"-" json:"medications"`
	Attachments []string     `db:"-" json:"attachments"`

	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Creator is the display-safe subset of the authoring clinician,
	// resolved on reads.
	Creator *ClinicianRef `db:"-" json:"creator,omitempty"`
}

type Medication struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`
}

type CreateMedicalRecordRequest struct {
	Type        string       `json:"type" binding:"required"`
	Diagnosis   string       `json:"diagnosis"`
	Treatment   string       `json:"treatment"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes"`
	Attachments []string     `json:"attachments"`
}

type RecordFilters struct {
	Type      string    `form:"type"`
	StartDate time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   time.Time `form:"end_date" time_format:"2006-01-02"`
}
