package models

import (
	"time"
)

// Project represents a unit of work belonging to one company.
type Project struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Creator identity, populated on list queries only.
	CreatorFirstName string `json:"creator_first_name,omitempty"`
	CreatorLastName  string `json:"creator_last_name,omitempty"`
}

// NewProject creates a new Project with initialized timestamps.
func NewProject(name, description, companyID, createdBy string) *Project {
	now := time.Now()
	return &Project{
		CompanyID:   companyID,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProjectMember is a membership row joined with user identity.
type ProjectMember struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}
