// Package authpw provides email/password authentication for admin users.
package authpw

import (
	"context"
	"errors"
	"fmt"

	"folio/api/internal/store"
	"folio/api/internal/util"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the storage slice the auth service needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	CountUsers(ctx context.Context) (int, error)
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// SignIn verifies credentials and returns the matching user.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Burn a comparison anyway so missing and wrong-password
		// lookups take similar time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000u"), []byte(password))
		return store.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureOwner creates the admin owner account on first boot. It is a
// no-op when any user already exists or credentials are not configured.
func (s *Service) EnsureOwner(ctx context.Context, email, password, displayName string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if len(password) < 8 {
		return errors.New("owner password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash owner password: %w", err)
	}

	user := store.User{
		ID:           util.NewID("usr"),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create owner: %w", err)
	}
	return nil
}
