package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Dan9191/expense-service/internal/apperr"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/Dan9191/expense-service/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

var errNameRequired = apperr.Validation("Validation failed", apperr.FieldError{Field: "name", Message: "Name is required"})

// AuthService handles signup, login and profile management
type AuthService struct {
	users  UserStore
	tokens *TokenManager
	log    *logrus.Logger
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService initializes a new auth service
func NewAuthService(users UserStore, tokens *TokenManager, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

// Signup creates a new user with a hashed password and returns a token for it
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" {
		return nil, errNameRequired
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, apperr.Conflict("User already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return s.authResult(user)
}

// Login authenticates a user and returns a fresh token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return s.authResult(user)
}

// Profile returns the user a verified token was issued for
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// UpdateProfile changes the user's name and email and returns the stored user
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errNameRequired
	}
	err := s.users.UpdateUser(ctx, userID, name, normalizeEmail(email))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound("User not found")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, apperr.Conflict("Email already in use")
	case err != nil:
		return nil, apperr.Internal(err)
	}

	s.log.WithField("user_id", userID).Info("Profile updated")
	return s.Profile(ctx, userID)
}

func (s *AuthService) authResult(user *models.User) (*models.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &models.AuthResult{Token: token, User: user.Summary()}, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
