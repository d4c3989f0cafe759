package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crewbase/crewbase/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "crewbase-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")

	store := NewSQLiteStorage(dbPath)
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func newTestUser(email string) *models.User {
	user := models.NewUser(email, "Ada", "Lovelace")
	user.ID = uuid.New().String()
	user.PasswordHash = "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehashfake"
	return user
}

func newTestCompany(name string) *models.Company {
	company := models.NewCompany(name, "test company")
	company.ID = uuid.New().String()
	return company
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Verify tables exist by querying them
	tables := []string{"users", "companies", "company_members", "projects", "project_members", "schema_migrations"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestSQLiteStorage_MigrateIdempotent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	// Running migrations again must be a no-op
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestCompanyRepository_CreateWithOwner(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	company := newTestCompany("Acme")

	if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	// User row exists
	gotUser, err := store.Users().GetByEmail(ctx, "ada@acme.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if gotUser == nil || gotUser.ID != owner.ID {
		t.Fatalf("owner user not found after create")
	}

	// Company row exists
	gotCompany, err := store.Companies().GetByID(ctx, company.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if gotCompany == nil || gotCompany.Name != "Acme" {
		t.Fatalf("company not found after create")
	}

	// Owner membership exists with the owner role
	memberships, err := store.Companies().ListForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(memberships) != 1 {
		t.Fatalf("memberships count = %d, want 1", len(memberships))
	}
	if memberships[0].ID != company.ID {
		t.Errorf("membership company = %q, want %q", memberships[0].ID, company.ID)
	}
	if memberships[0].Role != models.RoleOwner {
		t.Errorf("membership role = %q, want owner", memberships[0].Role)
	}
}

func TestCompanyRepository_CreateWithOwner_DuplicateEmail(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := newTestUser("ada@acme.com")
	if err := store.Companies().CreateWithOwner(ctx, newTestCompany("Acme"), first); err != nil {
		t.Fatalf("first CreateWithOwner failed: %v", err)
	}

	second := newTestUser("ada@acme.com")
	err := store.Companies().CreateWithOwner(ctx, newTestCompany("Globex"), second)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("error = %v, want ErrDuplicateEmail", err)
	}

	// The rejected transaction must not leave a partial company behind
	companies, err := store.Companies().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(companies) != 1 {
		t.Errorf("companies count = %d, want 1", len(companies))
	}
}

func TestCompanyRepository_AddMember_NewUser(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	company := newTestCompany("Acme")
	if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	newMember := newTestUser("grace@acme.com")
	newMember.FirstName = "Grace"
	newMember.LastName = "Hopper"

	linked, err := store.Companies().AddMember(ctx, company.ID, newMember, models.RoleMember)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if linked.ID != newMember.ID {
		t.Errorf("linked ID = %q, want the new user %q", linked.ID, newMember.ID)
	}

	members, err := store.Companies().Members(ctx, company.ID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members count = %d, want 2", len(members))
	}
}

func TestCompanyRepository_AddMember_ExistingUserLinked(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Two companies, one shared user
	owner1 := newTestUser("ada@acme.com")
	acme := newTestCompany("Acme")
	if err := store.Companies().CreateWithOwner(ctx, acme, owner1); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	owner2 := newTestUser("grace@globex.com")
	globex := newTestCompany("Globex")
	if err := store.Companies().CreateWithOwner(ctx, globex, owner2); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	// Adding ada to Globex must link the existing account, not create a new one
	duplicate := newTestUser("ada@acme.com")
	linked, err := store.Companies().AddMember(ctx, globex.ID, duplicate, models.RoleMember)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if linked.ID != owner1.ID {
		t.Errorf("linked ID = %q, want existing user %q", linked.ID, owner1.ID)
	}

	count, err := store.Users().Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("user count = %d, want 2", count)
	}

	// ada now belongs to both companies
	memberships, err := store.Companies().ListForUser(ctx, owner1.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(memberships) != 2 {
		t.Errorf("memberships count = %d, want 2", len(memberships))
	}
}

func TestCompanyRepository_AddMember_AlreadyMember(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	company := newTestCompany("Acme")
	if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	duplicate := newTestUser("ada@acme.com")
	_, err := store.Companies().AddMember(ctx, company.ID, duplicate, models.RoleMember)
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("error = %v, want ErrAlreadyMember", err)
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	if err := store.Companies().CreateWithOwner(ctx, newTestCompany("Acme"), owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	byID, err := store.Users().GetByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID == nil || byID.Email != "ada@acme.com" {
		t.Errorf("GetByID returned %+v", byID)
	}

	// Not-found lookups return nil without error
	missing, err := store.Users().GetByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}

	missing, err = store.Users().GetByEmail(ctx, "nobody@acme.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing email, got %+v", missing)
	}

	users, err := store.Users().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users count = %d, want 1", len(users))
	}
}

func TestProjectRepository_CreateWithOwner(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	company := newTestCompany("Acme")
	if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	project := models.NewProject("Launch", "Q3 launch", company.ID, owner.ID)
	project.ID = uuid.New().String()

	if err := store.Projects().CreateWithOwner(ctx, project); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	got, err := store.Projects().GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil || got.Name != "Launch" {
		t.Fatalf("project not found after create")
	}

	// The creator holds an owner membership on the project
	members, err := store.Projects().Members(ctx, project.ID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members count = %d, want 1", len(members))
	}
	if members[0].UserID != owner.ID {
		t.Errorf("member = %q, want creator %q", members[0].UserID, owner.ID)
	}
	if members[0].Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", members[0].Role)
	}
}

func TestProjectRepository_ListByCompany(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	owner := newTestUser("ada@acme.com")
	company := newTestCompany("Acme")
	if err := store.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		t.Fatalf("CreateWithOwner failed: %v", err)
	}

	older := models.NewProject("Older", "", company.ID, owner.ID)
	older.ID = uuid.New().String()
	older.CreatedAt = time.Now().Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	if err := store.Projects().CreateWithOwner(ctx, older); err != nil {
		t.Fatalf("create older project: %v", err)
	}

	newer := models.NewProject("Newer", "", company.ID, owner.ID)
	newer.ID = uuid.New().String()
	if err := store.Projects().CreateWithOwner(ctx, newer); err != nil {
		t.Fatalf("create newer project: %v", err)
	}

	projects, err := store.Projects().ListByCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects count = %d, want 2", len(projects))
	}

	// Newest first
	if projects[0].Name != "Newer" || projects[1].Name != "Older" {
		t.Errorf("order = [%s, %s], want [Newer, Older]", projects[0].Name, projects[1].Name)
	}

	// Creator identity is joined onto each row
	if projects[0].CreatorFirstName != "Ada" || projects[0].CreatorLastName != "Lovelace" {
		t.Errorf("creator = %s %s, want Ada Lovelace",
			projects[0].CreatorFirstName, projects[0].CreatorLastName)
	}

	// Unknown company yields an empty result
	none, err := store.Projects().ListByCompany(ctx, "no-such-company")
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("projects count = %d, want 0", len(none))
	}
}

func TestProjectRepository_GetByID_NotFound(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	got, err := store.Projects().GetByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing project, got %+v", got)
	}
}
