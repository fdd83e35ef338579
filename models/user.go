package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleGuest UserRole = "guest"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleGuest
}

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Role         UserRole   `json:"role"`
}
