package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crewbase/crewbase/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, company_id, name, description, created_by, created_at, updated_at
		FROM projects WHERE id = ?
	`
	project := &models.Project{}
	var description sql.NullString
	var createdBy sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.CompanyID, &project.Name, &description, &createdBy,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	project.Description = description.String
	project.CreatedBy = createdBy.String
	return project, nil
}

// CreateWithOwner inserts the project and its owner membership in one
// transaction, so a project can never exist without an owner.
func (r *sqliteProjectRepo) CreateWithOwner(ctx context.Context, project *models.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, company_id, name, description, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.CompanyID, project.Name, project.Description, project.CreatedBy,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`, project.ID, project.CreatedBy, models.RoleOwner, time.Now())
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.company_id, p.name, p.description, p.created_by,
		       u.first_name, u.last_name, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE p.company_id = ?
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		var description, createdBy, firstName, lastName sql.NullString
		err := rows.Scan(
			&project.ID, &project.CompanyID, &project.Name, &description, &createdBy,
			&firstName, &lastName, &project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.Description = description.String
		project.CreatedBy = createdBy.String
		project.CreatorFirstName = firstName.String
		project.CreatorLastName = lastName.String
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) Members(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, pm.role, pm.joined_at
		FROM users u
		INNER JOIN project_members pm ON u.id = pm.user_id
		WHERE pm.project_id = ?
		ORDER BY pm.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project members: %w", err)
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		member := &models.ProjectMember{}
		err := rows.Scan(
			&member.UserID, &member.Email, &member.FirstName, &member.LastName,
			&member.Role, &member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
