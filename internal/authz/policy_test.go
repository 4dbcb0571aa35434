package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicore/patient-registry/internal/model"
)

func TestPolicy(t *testing.T) {
	tests := []struct {
		op      Operation
		role    model.Role
		allowed bool
	}{
		{OpListPatients, model.RoleDoctor, true},
		{OpListPatients, model.RoleNurse, true},
		{OpListPatients, model.RoleAdmin, true},
		{OpGetPatient, model.RoleNurse, true},
		{OpCreatePatient, model.RoleNurse, true},
		{OpUpdatePatient, model.RoleDoctor, true},
		{OpListRecords, model.RoleNurse, true},

		{OpAddRecord, model.RoleDoctor, true},
		{OpAddRecord, model.RoleNurse, false},
		{OpAddRecord, model.RoleAdmin, false},

		{OpDeletePatient, model.RoleAdmin, true},
		{OpDeletePatient, model.RoleDoctor, false},
		{OpDeletePatient, model.RoleNurse, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, Allowed(tt.op, tt.role),
			"op=%s role=%s", tt.op, tt.role)
	}
}

func TestPolicyUnknownOperationDenies(t *testing.T) {
	assert.False(t, Allowed(Operation("patients:purge"), model.RoleAdmin))
}

func TestPolicyUnknownRoleDenies(t *testing.T) {
	assert.False(t, Allowed(OpListPatients, model.Role("receptionist")))
}

func TestAllowedRolesReturnsCopy(t *testing.T) {
	roles := AllowedRoles(OpDeletePatient)
	assert.Equal(t, []model.Role{model.RoleAdmin}, roles)

	roles[0] = model.RoleNurse
	assert.False(t, Allowed(OpDeletePatient, model.RoleNurse))
}
