package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expense-api/internal/models"
	"expense-api/internal/service"
)

const dateLayout = "2006-01-02"

var errBadParam = errors.New("bad parameter")

type expenseRequest struct {
	ID         *int64  `json:"id"`
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	CategoryID *int64  `json:"categoryId"`
}

func (req expenseRequest) input() (service.ExpenseInput, error) {
	date, err := parseDate(req.Date, false)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{
		Title:      req.Title,
		Amount:     req.Amount,
		Date:       date,
		CategoryID: req.CategoryID,
	}, nil
}

// ListExpenses returns the caller's newest expenses.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondWithError(w, r, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	expenses, err := h.expenses.List(r.Context(), p.UserID, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, expenses)
}

// CreateExpense records a new expense for the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}

	e, err := h.expenses.Create(r.Context(), p.UserID, in)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, e)
}

// UpdateExpense overwrites one of the caller's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)

	id, err := pathID(r)
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.ID != nil && *req.ID != id {
		respondWithError(w, r, http.StatusBadRequest, "id in body does not match path", nil)
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}

	if _, err := h.expenses.Update(r.Context(), p.UserID, id, in); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteExpense removes one of the caller's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)

	id, err := pathID(r)
	if err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), p.UserID, id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FilterExpenses applies the optional query predicates to the caller's expenses.
func (h *Handlers) FilterExpenses(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipalFromContext(r)
	q := r.URL.Query()

	var f models.ExpenseFilter
	var err error
	if f.CategoryID, err = queryInt(q.Get("categoryId"), "categoryId"); err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	if f.FromDate, err = queryDate(q.Get("fromDate"), "fromDate", false); err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	if f.ToDate, err = queryDate(q.Get("toDate"), "toDate", true); err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	if f.MinAmount, err = queryFloat(q.Get("minAmount"), "minAmount"); err != nil {
		respondWithBadParam(w, r, err)
		return
	}
	if f.MaxAmount, err = queryFloat(q.Get("maxAmount"), "maxAmount"); err != nil {
		respondWithBadParam(w, r, err)
		return
	}

	expenses, err := h.expenses.Filter(r.Context(), p.UserID, f)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, expenses)
}

// ListCategories returns the global category list.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category to the global list.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	c, err := h.categories.Create(r.Context(), req.Name)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid expense id", errBadParam)
	}
	return id, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. A calendar date
// is midnight UTC, or the last second of that day when endOfDay is set.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", errBadParam)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", errBadParam)
	}
	return t.UTC(), nil
}

func queryDate(s, name string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", errBadParam, name)
	}
	return &t, nil
}

func queryInt(s, name string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errBadParam, name)
	}
	return &n, nil
}

func queryFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s must be a number", errBadParam, name)
	}
	return &f, nil
}
