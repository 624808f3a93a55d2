package storage

import (
	"context"
	"database/sql"
	"time"

	"expense-api/internal/models"
)

const userColumns = "id, username, email, password_hash, role, created_at"

// CreateUser creates a new user and returns it as stored.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash, role string) (*models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)",
		username, nullString(email), passwordHash, role, formatTime(time.Now()),
	)
	if err != nil {
		return nil, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// UserExists reports whether the username or the email is already taken.
func (db *DB) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = ? OR email = ?)",
		username, nullString(email),
	).Scan(&exists)
	return exists, err
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		email     sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &createdAt); err != nil {
		return nil, mapError(err)
	}
	u.Email = email.String
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

// nullString stores empty strings as NULL so optional unique columns do not collide.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
