package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
}

type SignupInput struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// Signup registers a guest account. Admin accounts are provisioned directly
// in the store, never through this endpoint.
func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if input.Username == "" || input.FullName == "" {
		return nil, fmt.Errorf("%w: username and full name are required", ErrInvalidOutcome)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidOutcome, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: string(hashed),
		FullName:     input.FullName,
		DateOfBirth:  input.DateOfBirth,
		Role:         models.RoleGuest,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUsernameConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
