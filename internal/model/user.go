package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles a managed user can hold.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
)

// Roles lists every role in display order.
var Roles = []Role{RoleDoctor, RoleNurse, RolePatient, RoleStaff}

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// HasSpeciality reports whether users with this role carry a speciality.
func (r Role) HasSpeciality() bool {
	return r == RoleDoctor || r == RoleStaff
}

// Label returns the capitalised role name.
func (r Role) Label() string {
	if r == "" {
		return "All users"
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// UserStatus is the activation state of a user account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is a hospital account managed from the console.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	Speciality string    `json:"speciality,omitempty"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Status returns the user's activation state.
func (u User) Status() UserStatus {
	if u.IsActive {
		return UserStatusActive
	}
	return UserStatusInactive
}

// UserUpdate is a partial update. Nil fields are omitted from the payload.
type UserUpdate struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	Speciality *string `json:"speciality,omitempty"`
}

// UserFilter narrows a user list query.
type UserFilter struct {
	Role   Role
	Status UserStatus
}

// UserList is the response of the user list endpoint.
type UserList struct {
	Users []User `json:"users"`
}

// Session is the result of a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
