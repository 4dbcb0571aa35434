package authz

import (
	"github.com/clinicore/patient-registry/internal/model"
)

// Operation names an API operation for authorization purposes.
type Operation string

const (
	OpListPatients  Operation = "patients:list"
	OpGetPatient    Operation = "patients:get"
	OpCreatePatient Operation = "patients:create"
	OpUpdatePatient Operation = "patients:update"
	OpDeletePatient Operation = "patients:delete"
	OpListRecords   Operation = "records:list"
	OpAddRecord     Operation = "records:add"
)

// policy is the single authorization table: every route consults it, no
// role checks live anywhere else.
var policy = map[Operation][]model.Role{
	OpListPatients:  {model.RoleDoctor, model.RoleNurse, model.RoleAdmin},
	OpGetPatient:    {model.RoleDoctor, model.RoleNurse, model.RoleAdmin},
	OpCreatePatient: {model.RoleDoctor, model.RoleNurse, model.RoleAdmin},
	OpUpdatePatient: {model.RoleDoctor, model.RoleNurse, model.RoleAdmin},
	OpListRecords:   {model.RoleDoctor, model.RoleNurse, model.RoleAdmin},
	OpAddRecord:     {model.RoleDoctor},
	OpDeletePatient: {model.RoleAdmin},
}

// Allowed reports whether a role may perform the operation. Unknown
// operations deny everything.
func Allowed(op Operation, role model.Role) bool {
	for _, allowed := range policy[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// AllowedRoles returns the role set for an operation.
func AllowedRoles(op Operation) []model.Role {
	roles := make([]model.Role, len(policy[op]))
	copy(roles, policy[op])
	return roles
}
