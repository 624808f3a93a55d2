package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expense-api/internal/auth"
	"expense-api/internal/handlers"
	"expense-api/internal/service"
	"expense-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	authSvc, err := service.NewAuthService(db, auth.NewTokenManager("router-test-secret-key", "", 0), 4)
	require.NoError(t, err)
	h := handlers.NewHandlers(authSvc, service.NewExpenseService(db), service.NewCategoryService(db), db)

	// Create router - this panics if two patterns conflict
	mux := setupRouter(h, "http://localhost:3000")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"Health is public", "GET", "/api/healthz", "", http.StatusOK},
		{"Hello is public", "GET", "/api/hello", "", http.StatusOK},
		{"Categories are public", "GET", "/api/categories", "", http.StatusOK},
		{"Login rejects blank credentials", "POST", "/api/auth/login", `{}`, http.StatusBadRequest},
		{"Register rejects missing fields", "POST", "/api/auth/register", `{"username":"x"}`, http.StatusBadRequest},
		{"Me requires auth", "GET", "/api/auth/me", "", http.StatusUnauthorized},
		{"List expenses requires auth", "GET", "/api/expenses", "", http.StatusUnauthorized},
		{"Create expense requires auth", "POST", "/api/expenses", `{}`, http.StatusUnauthorized},
		{"Filter requires auth", "GET", "/api/expenses/filter", "", http.StatusUnauthorized},
		{"Summary requires auth", "GET", "/api/expenses/summary", "", http.StatusUnauthorized},
		{"Chart data requires auth", "GET", "/api/expenses/chart-data", "", http.StatusUnauthorized},
		{"Update requires auth", "PUT", "/api/expenses/1", `{}`, http.StatusUnauthorized},
		{"Delete requires auth", "DELETE", "/api/expenses/1", "", http.StatusUnauthorized},
		{"Wrong method", "PATCH", "/api/expenses/1", "", http.StatusMethodNotAllowed},
		{"Unknown route", "GET", "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, "%s %s returned unexpected status", tt.method, tt.path)
			assert.NotEmpty(t, w.Header().Get(handlers.RequestIDHeader), "request id header")
		})
	}
}

func TestSetupRouterPreflight(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	authSvc, err := service.NewAuthService(db, auth.NewTokenManager("router-test-secret-key", "", 0), 4)
	require.NoError(t, err)
	mux := setupRouter(handlers.NewHandlers(authSvc, service.NewExpenseService(db), service.NewCategoryService(db), db), "http://localhost:3000")

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
