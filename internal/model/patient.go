package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	PatientID   string    `db:"patient_id" json:"patient_id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`

	EmergencyContactJSON json.RawMessage `db:"emergency_contact" json:"-"`
	InsuranceJSON        json.RawMessage `db:"insurance" json:"-"`
	MedicalHistoryJSON   json.RawMessage `db:"medical_history" json:"-"`

	EmergencyContact *EmergencyContact `db:"-" json:"emergency_contact,omitempty"`
	Insurance        *Insurance        `db:"-" json:"insurance,omitempty"`
	MedicalHistory   MedicalHistory    `db:"-" json:"medical_history"`

	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"-"`
	Status           string     `db:"status" json:"status"`

	CreatedBy uuid.UUID  `db:"created_by" json:"created_by"`
	UpdatedBy *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	DeletedBy *uuid.UUID `db:"deleted_by" json:"deleted_by,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Insurance struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policy_number"`
	GroupNumber  string `json:"group_number,omitempty"`
}

// MedicalHistory is the clinical summary embedded in the patient document.
// Diagnoses is append-only; entries are added by the medical record
// service and never rewritten.
type MedicalHistory struct {
	BloodType         string      `json:"blood_type,omitempty"`
	Allergies         []string    `json:"allergies"`
	ChronicConditions []string    `json:"chronic_conditions"`
	Diagnoses         []Diagnosis `json:"diagnoses"`
	Notes             string      `json:"notes,omitempty"`
}

type Diagnosis struct {
	Condition     string    `json:"condition"`
	DiagnosedDate time.Time `json:"diagnosed_date"`
	DiagnosedBy   uuid.UUID `json:"diagnosed_by"`
}

// ClinicianRef is the display-safe subset of a clinician exposed on
// patient reads.
type ClinicianRef struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Specialization string    `db:"specialization" json:"specialization"`
}

// PatientDetail is the single-patient view with resolved references.
type PatientDetail struct {
	Patient
	AssignedDoctor *ClinicianRef  `json:"assigned_doctor,omitempty"`
	Appointments   []*Appointment `json:"appointments"`
}

// PatientPage is one page of a patient listing.
type PatientPage struct {
	Patients   []*Patient `json:"data"`
	Total      int64      `json:"total"`
	TotalPages int64      `json:"total_pages"`
	Page       int        `json:"current_page"`
}

type CreatePatientRequest struct {
	FirstName         string            `json:"first_name" binding:"required"`
	LastName          string            `json:"last_name" binding:"required"`
	DateOfBirth       time.Time         `json:"date_of_birth" binding:"required,beforetoday"`
	Gender            string            `json:"gender" binding:"required,oneof=male female other"`
	Email             string            `json:"email" binding:"required,email"`
	Phone             string            `json:"phone" binding:"required"`
	Address           string            `json:"address"`
	EmergencyContact  *EmergencyContact `json:"emergency_contact"`
	Insurance         *Insurance        `json:"insurance"`
	BloodType         string            `json:"blood_type"`
	Allergies         []string          `json:"allergies"`
	ChronicConditions []string          `json:"chronic_conditions"`
}

// UpdatePatientRequest carries the fixed allow-list of mutable fields.
// Anything else submitted by a client is dropped at binding time.
type UpdatePatientRequest struct {
	FirstName        *string           `json:"first_name"`
	LastName         *string           `json:"last_name"`
	Email            *string           `json:"email" binding:"omitempty,email"`
	Phone            *string           `json:"phone"`
	Address          *string           `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergency_contact"`
	Insurance        *Insurance        `json:"insurance"`
	Status           *string           `json:"status" binding:"omitempty,oneof=active inactive"`
}

type PatientFilters struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Pagination
}
