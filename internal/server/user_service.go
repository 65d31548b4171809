package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyzss/matchmaker-ai/internal/config"
	"github.com/nyzss/matchmaker-ai/internal/db"
)

// UserStore is the user and session persistence surface. *db.DB implements
// it.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*db.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// UserService provides business logic for user authentication operations.
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies.
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
	}
}

// Register creates a new user with password authentication.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*db.User, error) {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user by email and password.
func (s *UserService) Login(ctx context.Context, email, password string) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Same generic error whether the user is missing or the password is
	// wrong.
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(user.PasswordHash, password) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// RecordSession persists an issued token so it can be revoked on logout.
func (s *UserService) RecordSession(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if _, err := s.store.CreateSession(ctx, userID, token, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RevokeSession removes a persisted session.
func (s *UserService) RevokeSession(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}
