package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harborhealth/harbor-backend/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists is returned when email is already registered
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidRole is returned when signup requests an unknown role
	ErrInvalidRole = errors.New("role must be client or therapist")
	// ErrTherapistNotFound is returned when a client signs up against an
	// unknown therapist email
	ErrTherapistNotFound = errors.New("therapist not found")
)

// Service handles account signup, login, and token validation
type Service struct {
	users repository.UserRepository
	jwt   *JWTService
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, jwt *JWTService) *Service {
	return &Service{users: users, jwt: jwt}
}

// SignupRequest is the input for account creation. Clients attach to a
// therapist by the therapist's email address.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
	TherapistEmail string `json:"therapist_email"`
}

// TokenPair carries a fresh access/refresh token pair and the account it
// belongs to.
type TokenPair struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         *repository.User `json:"user"`
}

// Signup registers a new account and returns a token pair
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Role != repository.RoleClient && req.Role != repository.RoleTherapist {
		return nil, ErrInvalidRole
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	user := &repository.User{
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
	}

	if req.Role == repository.RoleClient && req.TherapistEmail != "" {
		therapist, err := s.users.GetTherapistByEmail(ctx, strings.ToLower(strings.TrimSpace(req.TherapistEmail)))
		if err != nil {
			return nil, fmt.Errorf("failed to look up therapist: %w", err)
		}
		if therapist == nil {
			return nil, ErrTherapistNotFound
		}
		user.TherapistID = &therapist.ID
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(user)
}

// Login authenticates an account and returns a token pair
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.issueTokens(user)
}

// ValidateAccessToken validates an access token and returns its claims
func (s *Service) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return s.jwt.ValidateAccessToken(tokenString)
}

func (s *Service) issueTokens(user *repository.User) (*TokenPair, error) {
	access, refresh, err := s.jwt.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
