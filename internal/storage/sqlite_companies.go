package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crewbase/crewbase/internal/models"
)

type sqliteCompanyRepo struct {
	db *sql.DB
}

func (r *sqliteCompanyRepo) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM companies WHERE id = ?
	`
	company := &models.Company{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&company.ID, &company.Name, &description,
		&company.CreatedAt, &company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company by id: %w", err)
	}
	company.Description = description.String
	return company, nil
}

func (r *sqliteCompanyRepo) List(ctx context.Context) ([]*models.Company, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM companies ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company := &models.Company{}
		var description sql.NullString
		err := rows.Scan(
			&company.ID, &company.Name, &description,
			&company.CreatedAt, &company.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		company.Description = description.String
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// CreateWithOwner creates the owner user, the company, and the owner
// membership in a single transaction.
func (r *sqliteCompanyRepo) CreateWithOwner(ctx context.Context, company *models.Company, owner *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", owner.Email).Scan(&existing)
	if err == nil {
		return ErrDuplicateEmail
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check email: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, owner.ID, owner.Email, owner.PasswordHash, owner.FirstName, owner.LastName,
		owner.CreatedAt, owner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO companies (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, company.ID, company.Name, company.Description, company.CreatedAt, company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO company_members (company_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`, company.ID, owner.ID, models.RoleOwner, time.Now())
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *sqliteCompanyRepo) ListForUser(ctx context.Context, userID string) ([]*models.UserCompany, error) {
	query := `
		SELECT c.id, c.name, c.description, cm.role, cm.joined_at
		FROM companies c
		INNER JOIN company_members cm ON c.id = cm.company_id
		WHERE cm.user_id = ?
		ORDER BY cm.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list companies for user: %w", err)
	}
	defer rows.Close()

	var companies []*models.UserCompany
	for rows.Next() {
		c := &models.UserCompany{}
		var description sql.NullString
		err := rows.Scan(&c.ID, &c.Name, &description, &c.Role, &c.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("scan user company: %w", err)
		}
		c.Description = description.String
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *sqliteCompanyRepo) Members(ctx context.Context, companyID string) ([]*models.CompanyMember, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, cm.role, cm.joined_at
		FROM users u
		INNER JOIN company_members cm ON u.id = cm.user_id
		WHERE cm.company_id = ?
		ORDER BY cm.joined_at
	`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company members: %w", err)
	}
	defer rows.Close()

	var members []*models.CompanyMember
	for rows.Next() {
		member := &models.CompanyMember{}
		err := rows.Scan(
			&member.UserID, &member.Email, &member.FirstName, &member.LastName,
			&member.Role, &member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan company member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// AddMember creates the user row if the email is new, then inserts the
// membership. Both steps run in one transaction.
func (r *sqliteCompanyRepo) AddMember(ctx context.Context, companyID string, user *models.User, role models.Role) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	linked := &models.User{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users WHERE email = ?
	`, user.Email).Scan(
		&linked.ID, &linked.Email, &linked.PasswordHash, &linked.FirstName, &linked.LastName,
		&linked.CreatedAt, &linked.UpdatedAt,
	)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
			user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		linked = user
	case err != nil:
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM company_members WHERE company_id = ? AND user_id = ?",
		companyID, linked.ID,
	).Scan(&one)
	if err == nil {
		return nil, ErrAlreadyMember
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO company_members (company_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`, companyID, linked.ID, role, time.Now())
	if err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return linked, nil
}
