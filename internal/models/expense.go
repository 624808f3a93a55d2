package models

import "time"

// Default role assigned at registration.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UncategorizedLabel names the aggregation bucket for expenses without a category.
const UncategorizedLabel = "Uncategorized"

// NoExpensesLabel is reported as the top category when there is nothing to summarize.
const NoExpensesLabel = "No expenses"

// Expense represents a financial expense record owned by a single user.
type Expense struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	CategoryID *int64    `json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
	UserID     int64     `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Category is shared by all users.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ExpenseFilter holds the optional predicates of a filtered listing.
// Nil fields are not applied.
type ExpenseFilter struct {
	CategoryID *int64
	FromDate   *time.Time
	ToDate     *time.Time
	MinAmount  *float64
	MaxAmount  *float64
	Limit      int
}

// Summary is the dashboard headline for a date range.
type Summary struct {
	TotalSpent    float64 `json:"totalSpent"`
	AveragePerDay float64 `json:"averagePerDay"`
	TopCategory   string  `json:"topCategory"`
}

// CategoryAmount is one slice of the category breakdown.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// MonthAmount is one point of the monthly trend, Month is formatted as YYYY-MM.
type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// ChartData feeds the dashboard charts.
type ChartData struct {
	ByCategory []CategoryAmount `json:"byCategory"`
	ByMonth    []MonthAmount    `json:"byMonth"`
}
