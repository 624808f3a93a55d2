package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"expense-api/internal/models"
	"expense-api/internal/storage"
)

const (
	// DefaultListLimit is used when the caller does not pass a positive limit.
	DefaultListLimit = 100
	// MaxListLimit caps explicit limits.
	MaxListLimit = 1000
	// FilterLimit caps filtered results.
	FilterLimit = 100
	// ChartMonths is the number of calendar months in the trend, current month included.
	ChartMonths = 6
)

// ExpenseStore is the persistence needed by ExpenseService. Every method is owner-scoped.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error)
	GetExpense(ctx context.Context, userID, id int64) (*models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, userID, id int64) error
	ListExpenses(ctx context.Context, userID int64, limit int) ([]models.Expense, error)
	FilterExpenses(ctx context.Context, userID int64, f models.ExpenseFilter) ([]models.Expense, error)
	GetRangeStats(ctx context.Context, userID int64, from, to *time.Time) (storage.RangeStats, error)
	GetCategoryTotals(ctx context.Context, userID int64, from, to *time.Time) ([]storage.CategoryTotal, error)
	GetMonthlyTotals(ctx context.Context, userID int64, since time.Time) ([]storage.MonthTotal, error)
}

// ExpenseInput carries the mutable fields of an expense.
type ExpenseInput struct {
	Title      string
	Amount     float64
	Date       time.Time
	CategoryID *int64
}

func (in ExpenseInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return validationError("title is required")
	}
	if in.Date.IsZero() {
		return validationError("date is required")
	}
	return nil
}

// ExpenseService implements per-user expense CRUD, filtering and aggregation.
type ExpenseService struct {
	store  ExpenseStore
	now    func() time.Time
	logger *slog.Logger
}

// NewExpenseService creates an ExpenseService over store.
func NewExpenseService(store ExpenseStore) *ExpenseService {
	return &ExpenseService{
		store:  store,
		now:    time.Now,
		logger: slog.Default().With("component", "expense"),
	}
}

// List returns the caller's newest expenses.
func (s *ExpenseService) List(ctx context.Context, userID int64, limit int) ([]models.Expense, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	expenses, err := s.store.ListExpenses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Create inserts a new expense owned by the caller.
func (s *ExpenseService) Create(ctx context.Context, userID int64, in ExpenseInput) (*models.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e, err := s.store.CreateExpense(ctx, &models.Expense{
		Title:      strings.TrimSpace(in.Title),
		Amount:     in.Amount,
		Date:       in.Date,
		CategoryID: in.CategoryID,
		UserID:     userID,
	})
	if err != nil {
		return nil, mapStoreError("create expense", err)
	}
	s.logger.InfoContext(ctx, "Expense created", "user_id", userID, "expense_id", e.ID, "amount", e.Amount)
	return e, nil
}

// Update overwrites title, amount, date and category of one of the caller's expenses.
// Another user's expense is reported as ErrNotFound.
func (s *ExpenseService) Update(ctx context.Context, userID, id int64, in ExpenseInput) (*models.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.store.UpdateExpense(ctx, &models.Expense{
		ID:         id,
		Title:      strings.TrimSpace(in.Title),
		Amount:     in.Amount,
		Date:       in.Date,
		CategoryID: in.CategoryID,
		UserID:     userID,
	})
	if err != nil {
		return nil, mapStoreError("update expense", err)
	}
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, mapStoreError("reload expense", err)
	}
	return e, nil
}

// Delete removes one of the caller's expenses.
func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return mapStoreError("delete expense", err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", "user_id", userID, "expense_id", id)
	return nil
}

// Filter applies the supplied predicates conjunctively, newest first, capped at FilterLimit.
func (s *ExpenseService) Filter(ctx context.Context, userID int64, f models.ExpenseFilter) ([]models.Expense, error) {
	if !finite(f.MinAmount) || !finite(f.MaxAmount) {
		return nil, validationError("amounts must be finite numbers")
	}
	if (f.MinAmount != nil && *f.MinAmount < 0) || (f.MaxAmount != nil && *f.MaxAmount < 0) {
		return nil, rangeError("amounts must be non-negative")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return nil, rangeError("minAmount cannot be greater than maxAmount")
	}
	if err := checkDateRange(f.FromDate, f.ToDate, "fromDate cannot be after toDate"); err != nil {
		return nil, err
	}

	f.Limit = FilterLimit
	expenses, err := s.store.FilterExpenses(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("filter expenses: %w", err)
	}
	return expenses, nil
}

// Summary computes total, average per day and top category for [start, end].
// The day span runs from the earliest to the latest expense in range, both inclusive.
func (s *ExpenseService) Summary(ctx context.Context, userID int64, start, end *time.Time) (models.Summary, error) {
	summary := models.Summary{TopCategory: models.NoExpensesLabel}
	if err := checkDateRange(start, end, "startDate cannot be after endDate"); err != nil {
		return summary, err
	}

	stats, err := s.store.GetRangeStats(ctx, userID, start, end)
	if err != nil {
		return summary, fmt.Errorf("range stats: %w", err)
	}
	if stats.Count == 0 {
		return summary, nil
	}

	totals, err := s.store.GetCategoryTotals(ctx, userID, start, end)
	if err != nil {
		return summary, fmt.Errorf("category totals: %w", err)
	}

	summary.TotalSpent = stats.Total
	summary.AveragePerDay = stats.Total / float64(daySpan(stats.Earliest, stats.Latest))
	if len(totals) > 0 {
		summary.TopCategory = totals[0].Category
	}
	return summary, nil
}

// ChartData returns the category breakdown over all time and the monthly trend
// for the trailing ChartMonths months. Months without spending are reported as zero.
func (s *ExpenseService) ChartData(ctx context.Context, userID int64) (models.ChartData, error) {
	data := models.ChartData{
		ByCategory: []models.CategoryAmount{},
		ByMonth:    make([]models.MonthAmount, 0, ChartMonths),
	}

	totals, err := s.store.GetCategoryTotals(ctx, userID, nil, nil)
	if err != nil {
		return data, fmt.Errorf("category totals: %w", err)
	}
	for _, ct := range totals {
		data.ByCategory = append(data.ByCategory, models.CategoryAmount{Category: ct.Category, Amount: ct.Total})
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month()-(ChartMonths-1), 1, 0, 0, 0, 0, time.UTC)
	monthly, err := s.store.GetMonthlyTotals(ctx, userID, first)
	if err != nil {
		return data, fmt.Errorf("monthly totals: %w", err)
	}
	byMonth := make(map[string]float64, len(monthly))
	for _, mt := range monthly {
		byMonth[mt.Month] = mt.Total
	}
	for i := 0; i < ChartMonths; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		data.ByMonth = append(data.ByMonth, models.MonthAmount{Month: key, Amount: byMonth[key]})
	}
	return data, nil
}

func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}

func checkDateRange(from, to *time.Time, msg string) error {
	if from != nil && to != nil && from.After(*to) {
		return rangeError(msg)
	}
	return nil
}

// daySpan counts calendar days from earliest to latest, both inclusive.
func daySpan(earliest, latest time.Time) int {
	e := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, time.UTC)
	l := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
	days := int(l.Sub(e).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrForeignKey):
		return ErrInvalidCategory
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
