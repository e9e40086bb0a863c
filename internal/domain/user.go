package domain

import "time"

// Role is the single authorization axis for accounts.
type Role string

const (
	RoleClient     Role = "client"
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
)

// Valid reports whether r is one of the four fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleEmployee, RoleAdmin, RoleConsultant:
		return true
	}
	return false
}

// IsStaff reports whether r works orders on behalf of the business.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin || r == RoleConsultant
}

// User is the account model for clients and staff.
type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Company      string
	Bio          string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
