package models

import "time"

// Role is the closed set of user roles. There is no hierarchy between roles;
// access checks test exact membership.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleViewer     Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleViewer:
		return true
	}
	return false
}

// Department is the closed set of departments a user can belong to.
type Department string

const (
	DepartmentFinance    Department = "finance"
	DepartmentSales      Department = "sales"
	DepartmentOperations Department = "operations"
	DepartmentManagement Department = "management"
)

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	switch d {
	case DepartmentFinance, DepartmentSales, DepartmentOperations, DepartmentManagement:
		return true
	}
	return false
}

// User is a credential-store record. Emails are stored lowercased and
// trimmed; the password hash is never serialized outward.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Department   Department `json:"department"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is the ephemeral authenticated caller attached to a request.
// It lives only for the duration of request processing.
type Identity struct {
	UserID     int64
	Email      string
	Role       Role
	Department Department
}
