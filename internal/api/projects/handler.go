// Package projects provides project directory API endpoints.
package projects

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewbase/crewbase/internal/api/middleware"
	"github.com/crewbase/crewbase/internal/models"
	"github.com/crewbase/crewbase/internal/storage"
)

// Response helpers (same pattern as companies)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeForbidden        = "FORBIDDEN"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(successResponse{Success: true, Message: message, Data: data})
}

// Handler handles project endpoints.
type Handler struct {
	storage storage.Storage

	// returnEmptyOnReadFailure makes list endpoints degrade to an empty
	// collection when storage fails, instead of returning 500.
	returnEmptyOnReadFailure bool
}

// NewHandler creates a new project handler.
func NewHandler(store storage.Storage, returnEmptyOnReadFailure bool) *Handler {
	return &Handler{
		storage:                  store,
		returnEmptyOnReadFailure: returnEmptyOnReadFailure,
	}
}

// CreateRequest is the request body for project creation.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CompanyID   string `json:"company_id"`
}

// ListByCompany returns projects for a company, newest first.
func (h *Handler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "company_id is required")
		return
	}

	ctx := r.Context()
	projects, err := h.storage.Projects().ListByCompany(ctx, companyID)
	if err != nil {
		log.Printf("list projects error: %v", err)
		if !h.returnEmptyOnReadFailure {
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		projects = nil
	}
	if projects == nil {
		projects = []*models.Project{}
	}

	jsonSuccess(w, http.StatusOK, "", projects)
}

// Create creates a project and its owner membership in one storage
// transaction. The creator is the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "name is required")
		return
	}
	if strings.TrimSpace(req.CompanyID) == "" {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "company_id is required")
		return
	}
	if err := ValidateName(req.Name); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	// Verify company exists and the caller belongs to it
	company, err := h.storage.Companies().GetByID(ctx, req.CompanyID)
	if err != nil {
		log.Printf("create project error: get company: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if company == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "company not found")
		return
	}
	if !h.isCompanyMember(ctx, req.CompanyID, userID) {
		jsonError(w, http.StatusForbidden, errCodeForbidden, "not a member of this company")
		return
	}

	project := models.NewProject(
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Description),
		req.CompanyID,
		userID,
	)
	project.ID = uuid.New().String()

	if err := h.storage.Projects().CreateWithOwner(ctx, project); err != nil {
		log.Printf("create project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("project created: %s (%s) in company %s", project.Name, project.ID, project.CompanyID)
	jsonSuccess(w, http.StatusCreated, "project created", project)
}

// Members returns the members of a project.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return
	}

	ctx := r.Context()
	members, err := h.storage.Projects().Members(ctx, id)
	if err != nil {
		log.Printf("get project members error: %v", err)
		if !h.returnEmptyOnReadFailure {
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		members = nil
	}
	if members == nil {
		members = []*models.ProjectMember{}
	}

	jsonSuccess(w, http.StatusOK, "", members)
}

func (h *Handler) isCompanyMember(ctx context.Context, companyID, userID string) bool {
	memberships, err := h.storage.Companies().ListForUser(ctx, userID)
	if err != nil {
		log.Printf("membership check error: %v", err)
		return false
	}
	for _, m := range memberships {
		if m.ID == companyID {
			return true
		}
	}
	return false
}
