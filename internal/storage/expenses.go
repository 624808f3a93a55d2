package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"expense-api/internal/models"
)

const expenseSelect = `SELECT e.id, e.title, e.amount, e.date, e.category_id, c.name, e.user_id, e.created_at
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id`

// CategoryTotal holds the summed amount of one category in a range.
type CategoryTotal struct {
	Category string
	Total    float64
}

// MonthTotal holds the summed amount of one calendar month, Month is YYYY-MM.
type MonthTotal struct {
	Month string
	Total float64
}

// RangeStats describes the expenses of a user within a date range.
type RangeStats struct {
	Count    int
	Total    float64
	Earliest time.Time
	Latest   time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateExpense inserts a new expense owned by e.UserID and returns it as stored.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	date := e.Date
	if date.IsZero() {
		date = time.Now()
	}
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO expenses (title, amount, date, category_id, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.Title, e.Amount, formatTime(date), nullInt64(e.CategoryID), e.UserID, formatTime(time.Now()),
	)
	if err != nil {
		return nil, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetExpense(ctx, e.UserID, id)
}

// GetExpense retrieves a single expense by ID, scoped to its owner.
func (db *DB) GetExpense(ctx context.Context, userID, id int64) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx, expenseSelect+" WHERE e.id = ? AND e.user_id = ?", id, userID)
	return scanExpense(row)
}

// UpdateExpense overwrites the mutable fields of an expense owned by e.UserID.
// It returns ErrNotFound when the owner has no expense with that ID.
func (db *DB) UpdateExpense(ctx context.Context, e *models.Expense) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE expenses SET title = ?, amount = ?, date = ?, category_id = ? WHERE id = ? AND user_id = ?",
		e.Title, e.Amount, formatTime(e.Date), nullInt64(e.CategoryID), e.ID, e.UserID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// DeleteExpense removes an expense owned by userID.
func (db *DB) DeleteExpense(ctx context.Context, userID, id int64) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// ListExpenses retrieves the newest expenses of a user, ordered by date descending.
func (db *DB) ListExpenses(ctx context.Context, userID int64, limit int) ([]models.Expense, error) {
	return db.FilterExpenses(ctx, userID, models.ExpenseFilter{Limit: limit})
}

// FilterExpenses applies every non-nil predicate of f conjunctively, newest first.
func (db *DB) FilterExpenses(ctx context.Context, userID int64, f models.ExpenseFilter) ([]models.Expense, error) {
	where, args := expenseWhere(userID, f)
	query := expenseSelect + where + " ORDER BY e.date DESC, e.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// GetRangeStats returns count, total and the earliest/latest dates of a user's expenses in [from, to].
func (db *DB) GetRangeStats(ctx context.Context, userID int64, from, to *time.Time) (RangeStats, error) {
	where, args := expenseWhere(userID, models.ExpenseFilter{FromDate: from, ToDate: to})

	var (
		stats            RangeStats
		earliest, latest sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(e.amount), 0), MIN(e.date), MAX(e.date) FROM expenses e"+where,
		args...,
	).Scan(&stats.Count, &stats.Total, &earliest, &latest)
	if err != nil {
		return stats, err
	}
	if stats.Count == 0 {
		return stats, nil
	}
	if stats.Earliest, err = parseTime(earliest.String); err != nil {
		return stats, err
	}
	if stats.Latest, err = parseTime(latest.String); err != nil {
		return stats, err
	}
	return stats, nil
}

// GetCategoryTotals sums a user's expenses per category name in [from, to], largest first.
// Expenses without a category are reported under models.UncategorizedLabel.
func (db *DB) GetCategoryTotals(ctx context.Context, userID int64, from, to *time.Time) ([]CategoryTotal, error) {
	where, args := expenseWhere(userID, models.ExpenseFilter{FromDate: from, ToDate: to})
	query := `SELECT COALESCE(c.name, ?) AS category, SUM(e.amount) AS total
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id` + where + `
GROUP BY category
ORDER BY total DESC, MIN(e.id) ASC`

	rows, err := db.conn.QueryContext(ctx, query, append([]any{models.UncategorizedLabel}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []CategoryTotal{}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// GetMonthlyTotals sums a user's expenses per calendar month from since onwards, oldest first.
func (db *DB) GetMonthlyTotals(ctx context.Context, userID int64, since time.Time) ([]MonthTotal, error) {
	where, args := expenseWhere(userID, models.ExpenseFilter{FromDate: &since})
	query := "SELECT substr(e.date, 1, 7) AS month, SUM(e.amount) FROM expenses e" + where +
		" GROUP BY month ORDER BY month ASC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []MonthTotal{}
	for rows.Next() {
		var mt MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, err
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

// expenseWhere always scopes by owner; the remaining predicates are optional.
func expenseWhere(userID int64, f models.ExpenseFilter) (string, []any) {
	clauses := []string{"e.user_id = ?"}
	args := []any{userID}

	if f.CategoryID != nil {
		clauses = append(clauses, "e.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.FromDate != nil {
		clauses = append(clauses, "e.date >= ?")
		args = append(args, formatTime(*f.FromDate))
	}
	if f.ToDate != nil {
		clauses = append(clauses, "e.date <= ?")
		args = append(args, formatTime(*f.ToDate))
	}
	if f.MinAmount != nil {
		clauses = append(clauses, "e.amount >= ?")
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		clauses = append(clauses, "e.amount <= ?")
		args = append(args, *f.MaxAmount)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e            models.Expense
		date         string
		createdAt    string
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Amount, &date, &categoryID, &categoryName, &e.UserID, &createdAt); err != nil {
		return nil, mapError(err)
	}

	var err error
	if e.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		e.CategoryID = &id
		e.Category = &models.Category{ID: id, Name: categoryName.String}
	}
	return &e, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
