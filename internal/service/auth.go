package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/models"
	"expense-api/internal/storage"
)

// bcrypt only uses the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

// UserStore is the persistence needed by AuthService.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	UserCount(ctx context.Context) (int, error)
}

// Principal is the identity carried by a verified bearer token.
type Principal struct {
	UserID   int64
	Role     string
	Username string
}

// AuthService registers users, checks credentials and issues/verifies tokens.
type AuthService struct {
	users      UserStore
	tokens     *auth.TokenManager
	bcryptCost int
	// checked instead of a stored hash when the username is unknown
	dummyHash string
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. bcryptCost outside bcrypt's range uses the default.
func NewAuthService(users UserStore, tokens *auth.TokenManager, bcryptCost int) (*AuthService, error) {
	dummy, err := auth.HashPasswordWithCost("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		logger:     slog.Default().With("component", "auth"),
	}, nil
}

// Register creates a user with the default role.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.CreateUser(ctx, username, email, password, models.RoleUser)
}

// CreateUser creates a user with an explicit role.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	role = strings.ToLower(strings.TrimSpace(role))

	if username == "" || strings.TrimSpace(password) == "" {
		return nil, validationError("username and password are required")
	}
	if len(password) > maxPasswordBytes {
		return nil, validationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, validationError("email is not a valid address")
		}
	}
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, validationError(fmt.Sprintf("unknown role %q", role))
	}

	exists, err := s.users.UserExists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := auth.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, email, hash, role)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// Login verifies credentials and returns a signed bearer token.
// Unknown users and wrong passwords yield the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", validationError("username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("get user: %w", err)
		}
		auth.CheckPassword(password, s.dummyHash)
		s.logger.WarnContext(ctx, "Login failed", "username", username)
		return "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "Login failed", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role, user.Username)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// TokenTTL is the lifetime of tokens returned by Login.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Authenticate verifies a bearer token and returns the identity it carries.
func (s *AuthService) Authenticate(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return &Principal{UserID: claims.UserID, Role: claims.Role, Username: claims.Username}, nil
}

// EnsureAdmin creates an admin account when no users exist yet.
// It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	count, err := s.users.UserCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, username, email, password, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
