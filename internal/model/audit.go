package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the audited operations. The values are a stable
// contract read by compliance tooling.
type AuditAction string

const (
	AuditActionView        AuditAction = "view"
	AuditActionCreate      AuditAction = "create"
	AuditActionUpdate      AuditAction = "update"
	AuditActionDelete      AuditAction = "delete"
	AuditActionViewRecords AuditAction = "view_records"
	AuditActionAddRecord   AuditAction = "add_record"
)

// AuditLog is one compliance event: who did what to which patient, when,
// and from where. Entries are append-only and outlive the patient they
// reference.
type AuditLog struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	PatientID uuid.UUID   `json:"patient_id" db:"patient_id"`
	Action    AuditAction `json:"action" db:"action"`
	IPAddress string      `json:"ip_address" db:"ip_address"`
	UserAgent string      `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time   `json:"timestamp" db:"created_at"`
}
