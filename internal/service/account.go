// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/personagen/personagen/internal/auth"
	"github.com/personagen/personagen/internal/model"
	"github.com/personagen/personagen/internal/repository"
)

// Service errors.
var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrKeyNotFound        = errors.New("API key not found")
)

// UserStore is the persistence seam for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// KeyStore is the persistence seam for API keys.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	ListActiveAPIKeys(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, userID, key string) error
}

// AccountService handles registration, credential checks, and the API key
// registry.
type AccountService struct {
	users  UserStore
	keys   KeyStore
	logger *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, keys KeyStore, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:  users,
		keys:   keys,
		logger: logger,
	}
}

// Register creates a new user with an Argon2id-hashed password.
// Returns ErrUsernameExists when the username is taken.
func (s *AccountService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))

	return user, nil
}

// verify resolves credentials to a user. Unknown username and wrong password
// both return ErrInvalidCredentials so callers cannot probe for usernames.
func (s *AccountService) verify(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueKey verifies credentials and mints a new active API key for the user.
func (s *AccountService) IssueKey(ctx context.Context, username, password string) (string, error) {
	user, err := s.verify(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}

	key := &model.APIKey{
		Key:       token,
		UserID:    user.ID,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := s.keys.CreateAPIKey(ctx, key); err != nil {
		return "", fmt.Errorf("store key: %w", err)
	}

	s.logger.Info("API key issued", slog.String("user_id", user.ID))

	return token, nil
}

// ListKeys returns the user's active keys.
func (s *AccountService) ListKeys(ctx context.Context, userID string) ([]*model.APIKey, error) {
	keys, err := s.keys.ListActiveAPIKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// RevokeKey deactivates one of the user's keys. Revocation is final.
// Returns ErrKeyNotFound when no active key matched for this user.
func (s *AccountService) RevokeKey(ctx context.Context, userID, key string) error {
	if err := s.keys.RevokeAPIKey(ctx, userID, key); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("revoke key: %w", err)
	}

	s.logger.Info("API key revoked", slog.String("user_id", userID))

	return nil
}
