// Package companies provides company directory API endpoints.
package companies

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewbase/crewbase/internal/api/auth"
	"github.com/crewbase/crewbase/internal/api/middleware"
	"github.com/crewbase/crewbase/internal/models"
	"github.com/crewbase/crewbase/internal/storage"
)

// Response helpers (same pattern as auth)
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
	errCodeAlreadyMember    = "ALREADY_MEMBER"
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

// Handler handles company endpoints.
type Handler struct {
	storage storage.Storage

	// returnEmptyOnReadFailure makes list endpoints degrade to an empty
	// collection when storage fails, instead of returning 500.
	returnEmptyOnReadFailure bool
}

// NewHandler creates a new company handler.
func NewHandler(store storage.Storage, returnEmptyOnReadFailure bool) *Handler {
	return &Handler{
		storage:                  store,
		returnEmptyOnReadFailure: returnEmptyOnReadFailure,
	}
}

// AddMemberRequest is the request body for adding a company member.
type AddMemberRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// List returns the companies the authenticated user belongs to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	companies, err := h.storage.Companies().ListForUser(ctx, userID)
	if err != nil {
		log.Printf("list companies error: %v", err)
		if !h.returnEmptyOnReadFailure {
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		companies = nil
	}
	if companies == nil {
		companies = []*models.UserCompany{}
	}

	jsonSuccess(w, http.StatusOK, "", companies)
}

// Members returns the members of a company.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "company id required")
		return
	}

	ctx := r.Context()
	members, err := h.storage.Companies().Members(ctx, id)
	if err != nil {
		log.Printf("get company members error: %v", err)
		if !h.returnEmptyOnReadFailure {
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		members = nil
	}
	if members == nil {
		members = []*models.CompanyMember{}
	}

	jsonSuccess(w, http.StatusOK, "", members)
}

// AddMember adds a user to a company, creating the account when the email
// is new. User creation and membership linking happen in one storage
// transaction. Only existing members of the company may add others.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "company id required")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	required := []struct{ field, value string }{
		{"email", req.Email},
		{"password", req.Password},
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, f.field+" is required")
			return
		}
	}
	if err := auth.ValidateEmail(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	role := models.RoleMember
	if req.Role != "" {
		switch req.Role {
		case "owner", "member":
			role = models.Role(req.Role)
		default:
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "role must be owner or member")
			return
		}
	}

	ctx := r.Context()

	// Verify company exists
	company, err := h.storage.Companies().GetByID(ctx, id)
	if err != nil {
		log.Printf("add member error: get company: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if company == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "company not found")
		return
	}

	// The caller must belong to the company
	callerID := middleware.GetUserID(ctx)
	if !h.isMember(ctx, id, callerID) {
		jsonError(w, http.StatusForbidden, errCodeForbidden, "not a member of this company")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("add member error: hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	user := models.NewUser(
		strings.ToLower(strings.TrimSpace(req.Email)),
		strings.TrimSpace(req.FirstName),
		strings.TrimSpace(req.LastName),
	)
	user.ID = uuid.New().String()
	user.PasswordHash = hash

	linked, err := h.storage.Companies().AddMember(ctx, id, user, role)
	if err != nil {
		if err == storage.ErrAlreadyMember {
			jsonError(w, http.StatusBadRequest, errCodeAlreadyMember, "user is already a member")
			return
		}
		log.Printf("add member error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("member %s added to company %s with role %s", linked.ID, id, role)
	jsonSuccess(w, http.StatusCreated, "member added", linked)
}

func (h *Handler) isMember(ctx context.Context, companyID, userID string) bool {
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
