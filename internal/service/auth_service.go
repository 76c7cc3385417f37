package service

import (
	"context"
	"errors"

	"yatube/internal/models"
	"yatube/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for any bad login.
var ErrInvalidCredentials = models.NewUnauthorizedError("Please enter a correct username and password. Note that both fields may be case-sensitive.")

type AuthService struct {
	users repository.UserRepository
	cost  int
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost, for tests and seeding.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// HashPassword returns the bcrypt hash stored in users.password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

// Register creates an account. Field rules are checked by the signup form.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	hashed, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// UsernameTaken reports whether an account already uses username.
func (s *AuthService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.users.UsernameTaken(ctx, username)
}
