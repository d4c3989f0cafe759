package projects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crewbase/crewbase/internal/api/auth"
	"github.com/crewbase/crewbase/internal/api/middleware"
	"github.com/crewbase/crewbase/internal/models"
	"github.com/crewbase/crewbase/internal/storage"
)

// Mock repositories

type mockProjectRepository struct {
	projects  []*models.Project
	members   []*models.ProjectMember
	created   *models.Project
	createErr error
	listErr   error
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) CreateWithOwner(ctx context.Context, project *models.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = project
	m.projects = append(m.projects, project)
	return nil
}

func (m *mockProjectRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Project
	for _, p := range m.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectRepository) Members(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	return m.members, nil
}

type mockCompanyRepository struct {
	companies   []*models.Company
	memberships map[string][]*models.UserCompany // keyed by user ID
}

func (m *mockCompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	for _, c := range m.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCompanyRepository) List(ctx context.Context) ([]*models.Company, error) {
	return m.companies, nil
}

func (m *mockCompanyRepository) CreateWithOwner(ctx context.Context, company *models.Company, owner *models.User) error {
	return nil
}

func (m *mockCompanyRepository) ListForUser(ctx context.Context, userID string) ([]*models.UserCompany, error) {
	return m.memberships[userID], nil
}

func (m *mockCompanyRepository) Members(ctx context.Context, companyID string) ([]*models.CompanyMember, error) {
	return nil, nil
}

func (m *mockCompanyRepository) AddMember(ctx context.Context, companyID string, user *models.User, role models.Role) (*models.User, error) {
	return user, nil
}

type mockStorage struct {
	projectRepo *mockProjectRepository
	companyRepo *mockCompanyRepository
}

func (m *mockStorage) Open() error                          { return nil }
func (m *mockStorage) Close() error                         { return nil }
func (m *mockStorage) Migrate() error                       { return nil }
func (m *mockStorage) Users() storage.UserRepository        { return nil }
func (m *mockStorage) Companies() storage.CompanyRepository { return m.companyRepo }
func (m *mockStorage) Projects() storage.ProjectRepository  { return m.projectRepo }

func newMockStorage() (*mockStorage, *mockProjectRepository, *mockCompanyRepository) {
	projectRepo := &mockProjectRepository{}
	companyRepo := &mockCompanyRepository{memberships: map[string][]*models.UserCompany{}}
	return &mockStorage{projectRepo: projectRepo, companyRepo: companyRepo}, projectRepo, companyRepo
}

var testTokens = auth.NewTokenService([]byte("test-secret-key-32-bytes-long!!"), 15*time.Minute)

// serveAs routes the request through the token middleware so the handler
// sees the verified identity of userID.
func serveAs(t *testing.T, userID string, handlerFunc http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	token, err := testTokens.Generate(userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	middleware.TokenAuth(testTokens)(handlerFunc).ServeHTTP(rec, req)
	return rec
}

func newCreateFixture() (*mockStorage, *mockProjectRepository) {
	store, projectRepo, companyRepo := newMockStorage()
	companyRepo.companies = []*models.Company{{ID: "company-1", Name: "Acme"}}
	companyRepo.memberships["user-1"] = []*models.UserCompany{
		{ID: "company-1", Name: "Acme", Role: models.RoleOwner},
	}
	return store, projectRepo
}

func TestCreate_Success(t *testing.T) {
	store, projectRepo := newCreateFixture()
	handler := NewHandler(store, true)

	body := `{"name": "Launch", "description": "Q3 launch", "company_id": "company-1"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-1", handler.Create, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if projectRepo.created == nil {
		t.Fatal("expected CreateWithOwner to be called")
	}
	if projectRepo.created.Name != "Launch" {
		t.Errorf("name = %q, want %q", projectRepo.created.Name, "Launch")
	}
	// The creator is the verified caller, never a client-supplied value
	if projectRepo.created.CreatedBy != "user-1" {
		t.Errorf("created_by = %q, want %q", projectRepo.created.CreatedBy, "user-1")
	}

	var resp struct {
		Data *models.Project `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID == "" {
		t.Error("expected project ID in response")
	}
}

func TestCreate_MissingName(t *testing.T) {
	store, projectRepo := newCreateFixture()
	handler := NewHandler(store, true)

	body := `{"description": "no name", "company_id": "company-1"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-1", handler.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", resp.Error.Code)
	}
	if resp.Error.Message != "name is required" {
		t.Errorf("message = %q, want %q", resp.Error.Message, "name is required")
	}

	// Nothing was written
	if projectRepo.created != nil {
		t.Error("no project should be created on validation failure")
	}
}

func TestCreate_MissingCompanyID(t *testing.T) {
	store, projectRepo := newCreateFixture()
	handler := NewHandler(store, true)

	body := `{"name": "Launch"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-1", handler.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if projectRepo.created != nil {
		t.Error("no project should be created on validation failure")
	}
}

func TestCreate_NameTooLong(t *testing.T) {
	store, _ := newCreateFixture()
	handler := NewHandler(store, true)

	body := `{"name": "` + strings.Repeat("x", 101) + `", "company_id": "company-1"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-1", handler.Create, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_CompanyNotFound(t *testing.T) {
	store, _, _ := newMockStorage()
	handler := NewHandler(store, true)

	body := `{"name": "Launch", "company_id": "missing"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-1", handler.Create, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreate_CallerNotMember(t *testing.T) {
	store, projectRepo := newCreateFixture()
	handler := NewHandler(store, true)

	// user-2 has no membership in company-1
	body := `{"name": "Launch", "company_id": "company-1"}`
	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader(body))
	rec := serveAs(t, "user-2", handler.Create, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if projectRepo.created != nil {
		t.Error("no project should be created by a non-member")
	}
}

func TestListByCompany_RequiresCompanyID(t *testing.T) {
	store, _, _ := newMockStorage()
	handler := NewHandler(store, true)

	req := httptest.NewRequest("GET", "/api/projects", nil)
	rec := serveAs(t, "user-1", handler.ListByCompany, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Message != "company_id is required" {
		t.Errorf("message = %q, want %q", resp.Error.Message, "company_id is required")
	}
}

func TestListByCompany_ReturnsProjects(t *testing.T) {
	store, projectRepo, _ := newMockStorage()
	now := time.Now()
	projectRepo.projects = []*models.Project{
		{ID: "proj-1", CompanyID: "company-1", Name: "Launch", CreatedAt: now},
		{ID: "proj-2", CompanyID: "company-2", Name: "Other", CreatedAt: now},
	}
	handler := NewHandler(store, true)

	req := httptest.NewRequest("GET", "/api/projects?company_id=company-1", nil)
	rec := serveAs(t, "user-1", handler.ListByCompany, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Project `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("projects count = %d, want 1", len(resp.Data))
	}
}

func TestListByCompany_DegradesToEmptyOnReadFailure(t *testing.T) {
	store, projectRepo, _ := newMockStorage()
	projectRepo.listErr = errors.New("storage offline")
	handler := NewHandler(store, true)

	req := httptest.NewRequest("GET", "/api/projects?company_id=company-1", nil)
	rec := serveAs(t, "user-1", handler.ListByCompany, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Project `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data == nil {
		t.Error("data should be an empty list, not null")
	}
	if len(resp.Data) != 0 {
		t.Errorf("projects count = %d, want 0", len(resp.Data))
	}
}

func TestListByCompany_FailsWhenPolicyDisabled(t *testing.T) {
	store, projectRepo, _ := newMockStorage()
	projectRepo.listErr = errors.New("storage offline")
	handler := NewHandler(store, false)

	req := httptest.NewRequest("GET", "/api/projects?company_id=company-1", nil)
	rec := serveAs(t, "user-1", handler.ListByCompany, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Launch", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"max length", strings.Repeat("x", 100), false},
		{"too long", strings.Repeat("x", 101), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
		})
	}
}
