package model

import (
	"github.com/google/uuid"
)

// Role is the closed set of roles the API authorizes against. Each
// authenticated actor carries exactly one.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse:
		return true
	}
	return false
}

// Actor is the verified identity attached to a request by the
// authentication layer.
type Actor struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

// RequestOrigin carries the network metadata recorded with every audit
// entry. It is passed explicitly from the transport layer so the audit
// recorder never reads ambient request state.
type RequestOrigin struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}
