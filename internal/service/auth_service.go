// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"log/slog"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/validation"
)

// ErrInvalidCredentials is the only message a failed login ever shows.
const ErrInvalidCredentials = "Invalid username or password"

type AuthService struct {
	userRepo repository.UserRepository
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register validates the form, checks uniqueness and creates the account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	validation.Trim(&in.Username, &in.Email)
	form := validation.RegisterForm{
		Username:        in.Username,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	taken := make(map[string]string)
	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		taken["username"] = "Username is already taken"
	} else if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		taken["email"] = "Email is already registered"
	} else if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, models.NewFieldValidationError(taken)
	}

	user := &models.User{Username: in.Username, Email: in.Email}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "User registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies credentials. Unknown users and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	form := validation.LoginForm{Username: username, Password: password}
	validation.Trim(&form.Username)
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewAuthenticationError(ErrInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(form.Password) {
		middleware.Logger.InfoContext(ctx, "Login failed", slog.Uint64("user_id", uint64(user.ID)))
		return nil, models.NewAuthenticationError(ErrInvalidCredentials)
	}
	return user, nil
}

// GetUser returns the account behind a session.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
