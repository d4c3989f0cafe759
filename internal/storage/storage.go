// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/crewbase/crewbase/internal/models"
)

// Sentinel errors for multi-step procedures.
var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyMember is returned when a membership link already exists.
	ErrAlreadyMember = errors.New("user is already a member")
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Users() UserRepository
	Companies() CompanyRepository
	Projects() ProjectRepository
}

// UserRepository defines operations for user lookup.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// CompanyRepository defines operations for company management.
//
// CreateWithOwner and AddMember are the transactional procedures of the
// system: each performs its multi-row write as a single transaction so a
// company can never exist without an owner membership.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	// CreateWithOwner atomically creates the owner user, the company, and
	// the owner membership. Returns ErrDuplicateEmail if the email is taken.
	CreateWithOwner(ctx context.Context, company *models.Company, owner *models.User) error
	// ListForUser returns the companies the user belongs to, joined with
	// the user's role and join time.
	ListForUser(ctx context.Context, userID string) ([]*models.UserCompany, error)
	Members(ctx context.Context, companyID string) ([]*models.CompanyMember, error)
	// AddMember atomically creates-or-links the user by email and inserts
	// the membership. The returned user is the created or existing row.
	// Returns ErrAlreadyMember if the membership already exists.
	AddMember(ctx context.Context, companyID string, user *models.User, role models.Role) (*models.User, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// CreateWithOwner atomically inserts the project and its owner
	// membership for project.CreatedBy in one transaction.
	CreateWithOwner(ctx context.Context, project *models.Project) error
	// ListByCompany returns projects newest first, with creator name joined.
	ListByCompany(ctx context.Context, companyID string) ([]*models.Project, error)
	Members(ctx context.Context, projectID string) ([]*models.ProjectMember, error)
}
