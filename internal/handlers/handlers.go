package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"expense-api/internal/auth"
	"expense-api/internal/service"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// PrincipalContextKey is the context key for the authenticated caller.
	PrincipalContextKey contextKey = "principal"
	// RequestIDContextKey is the context key for the request id.
	RequestIDContextKey contextKey = "request_id"
)

// SchemaVersioner reports the applied database schema version.
type SchemaVersioner interface {
	SchemaVersion() (uint, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	auth       *service.AuthService
	expenses   *service.ExpenseService
	categories *service.CategoryService
	schema     SchemaVersioner
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authSvc *service.AuthService, expenses *service.ExpenseService, categories *service.CategoryService, schema SchemaVersioner) *Handlers {
	return &Handlers{auth: authSvc, expenses: expenses, categories: categories, schema: schema}
}

// GetPrincipalFromContext retrieves the authenticated caller from request context.
func GetPrincipalFromContext(r *http.Request) *service.Principal {
	if p, ok := r.Context().Value(PrincipalContextKey).(*service.Principal); ok {
		return p
	}
	return nil
}

// AuthMiddleware wraps handlers to require a valid bearer token.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.GetBearerToken(r.Header)
		if err != nil {
			respondWithError(w, r, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}

		principal, err := h.auth.Authenticate(token)
		if err != nil {
			respondWithError(w, r, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// accepted as an alias of password; it carries the raw password, not a hash
	PasswordHash string `json:"passwordHash"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account with the default role.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	password := req.Password
	if password == "" {
		password = req.PasswordHash
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || password == "" {
		respondWithError(w, r, http.StatusBadRequest, "username, email and password are required", nil)
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Username, req.Email, password); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully"})
}

// Login verifies credentials and returns a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}{Token: token, ExpiresIn: int64(h.auth.TokenTTL().Seconds())})
}

// Me returns the identity carried by the caller's token.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)
	if p == nil {
		respondWithError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}{ID: p.UserID, Username: p.Username, Role: p.Role})
}

// Hello is a liveness greeting.
func (h *Handlers) Hello(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Hello from the expense API"})
}

// Health reports service status and the applied schema version.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status        string `json:"status"`
		SchemaVersion uint   `json:"schemaVersion,omitempty"`
	}{Status: "ok"}

	if h.schema != nil {
		version, err := h.schema.SchemaVersion()
		if err != nil {
			slog.ErrorContext(r.Context(), "Schema version check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, struct {
				Status string `json:"status"`
			}{Status: "unavailable"})
			return
		}
		resp.SchemaVersion = version
	}
	respondWithJSON(w, http.StatusOK, resp)
}
