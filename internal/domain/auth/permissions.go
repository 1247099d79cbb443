package auth

import (
	"context"
	"slices"
)

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermPayrollRead  = "payroll.read"
	PermPayrollWrite = "payroll.write"
	PermPayrollRun   = "payroll.run"
)

// Salary records are tenant-wide with no link to the caller's own employee
// id, so Employee gets no payroll permission.
var RolePermissions = map[string][]string{
	RoleEmployee:    {},
	RoleManager:     {PermPayrollRead},
	RoleHR:          {PermPayrollRead, PermPayrollWrite, PermPayrollRun},
	RoleSystemAdmin: {PermPayrollRead, PermPayrollWrite, PermPayrollRun},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	return slices.Contains(RolePermissions[role], permission), nil
}
