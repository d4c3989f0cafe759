package models

import (
	"time"
)

// Role represents a membership role within a company or project.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// ParseRole converts a string to Role, defaulting to member.
func ParseRole(s string) Role {
	if s == "owner" {
		return RoleOwner
	}
	return RoleMember
}

// Company represents a tenant organization owning projects and members.
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCompany creates a new Company with initialized timestamps.
func NewCompany(name, description string) *Company {
	now := time.Now()
	return &Company{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UserCompany is a company row joined with the caller's membership.
type UserCompany struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// CompanyMember is a membership row joined with user identity.
type CompanyMember struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}
