package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/crewbase/crewbase/internal/metrics"
	"github.com/crewbase/crewbase/internal/models"
	"github.com/crewbase/crewbase/internal/storage"
)

// Handler handles authentication endpoints.
type Handler struct {
	storage        storage.Storage
	tokenService   *TokenService
	lockoutTracker *LockoutTracker
}

// NewHandler creates a new auth handler.
func NewHandler(store storage.Storage, tokens *TokenService, lockout *LockoutTracker) *Handler {
	return &Handler{
		storage:        store,
		tokenService:   tokens,
		lockoutTracker: lockout,
	}
}

// Response helpers (local to avoid import cycle with api package)

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

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Message: message, Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Error codes
const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeAccountLocked    = "ACCOUNT_LOCKED"
	errCodeInternalError    = "INTERNAL_ERROR"
)

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	CompanyName        string `json:"companyName"`
	CompanyDescription string `json:"companyDescription"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Token     string `json:"token"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	UserID    string                `json:"user_id"`
	Email     string                `json:"email"`
	FirstName string                `json:"first_name"`
	LastName  string                `json:"last_name"`
	Companies []*models.UserCompany `json:"companies"`
	Token     string                `json:"token"`
}

// Register handles user registration. The user, their company, and the
// owner membership are created atomically in a single storage transaction;
// the plaintext password never reaches storage.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	// Presence validation, naming the first missing field
	required := []struct{ field, value string }{
		{"email", req.Email},
		{"password", req.Password},
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"companyName", req.CompanyName},
	}
	for _, f := range required {
		if err := requiredField(f.field, f.value); err != nil {
			jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
			return
		}
	}
	if err := ValidateEmail(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Duplicate email check before any write
	existing, err := h.storage.Users().GetByEmail(ctx, email)
	if err != nil {
		log.Printf("register error: check email: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusBadRequest, errCodeDuplicateEmail, "email already registered")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("register error: hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	owner := models.NewUser(email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	owner.ID = uuid.New().String()
	owner.PasswordHash = hash

	company := models.NewCompany(strings.TrimSpace(req.CompanyName), strings.TrimSpace(req.CompanyDescription))
	company.ID = uuid.New().String()

	if err := h.storage.Companies().CreateWithOwner(ctx, company, owner); err != nil {
		if err == storage.ErrDuplicateEmail {
			jsonError(w, http.StatusBadRequest, errCodeDuplicateEmail, "email already registered")
			return
		}
		log.Printf("register error: create company with owner: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	token, err := h.tokenService.Generate(owner.ID)
	if err != nil {
		log.Printf("register error: generate token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.RegistrationsTotal.Inc()
	log.Printf("registration success: user %s company %s", owner.ID, company.ID)

	jsonSuccess(w, http.StatusCreated, "user and company created", &RegisterResponse{
		UserID:    owner.ID,
		CompanyID: company.ID,
		Token:     token,
	})
}

// Login handles user login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "email and password required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check lockout
	if h.lockoutTracker.IsLocked(email) {
		remaining := h.lockoutTracker.RemainingLockoutTime(email)
		log.Printf("login blocked: account %s locked for %v", email, remaining)
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		jsonError(w, http.StatusTooManyRequests, errCodeAccountLocked, "account temporarily locked due to too many failed attempts")
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByEmail(ctx, email)
	if err != nil {
		log.Printf("login error: get user: %v", err)
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if user == nil {
		h.lockoutTracker.RecordFailure(email)
		log.Printf("login failed: user %s not found", email)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	if !VerifyPassword(req.Password, user.PasswordHash) {
		h.lockoutTracker.RecordFailure(email)
		log.Printf("login failed: invalid password for user %s", email)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	h.lockoutTracker.ClearFailures(email)

	// A memberships fetch failure degrades to an empty list rather than
	// failing the login.
	companies, err := h.storage.Companies().ListForUser(ctx, user.ID)
	if err != nil {
		log.Printf("login warning: list companies for %s: %v", user.ID, err)
		companies = []*models.UserCompany{}
	}
	if companies == nil {
		companies = []*models.UserCompany{}
	}

	token, err := h.tokenService.Generate(user.ID)
	if err != nil {
		log.Printf("login error: generate token: %v", err)
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Printf("login success: user %s", email)

	jsonSuccess(w, http.StatusOK, "login successful", &LoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Companies: companies,
		Token:     token,
	})
}
