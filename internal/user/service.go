package user

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"schoolapi/internal/apperr"
)

// Roles a user may hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is a registered account. The password hash never leaves the process:
// it is excluded from JSON serialization.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenIssuer mints a signed bearer token for a user's identity claims.
type TokenIssuer interface {
	Issue(id, email, role string) (string, error)
}

// AuthResult is the outcome of a successful signup or signin.
type AuthResult struct {
	User  User
	Token string
}

// SignUpInput carries validated signup fields.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Service implements the signup/signin flow.
type Service struct {
	repo       Repository
	tokens     TokenIssuer
	bcryptCost int
	log        *zap.Logger
}

// NewService creates a user service.
func NewService(repo Repository, tokens TokenIssuer, bcryptCost int, log *zap.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

// SignUp registers a new user and returns the created account with a token.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	s.log.Info("signup attempt", zap.String("email", email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		s.log.Warn("signup attempt with existing email", zap.String("email", email))
		return AuthResult{}, apperr.Conflict("User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", zap.Error(err))
		return AuthResult{}, apperr.Internal("Failed to process password").WithCause(err)
	}

	role := in.Role
	if role == "" {
		role = RoleStudent
	}

	created, err := s.repo.Create(ctx, User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hash),
		Role:     role,
	})
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.issueToken(created)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info("signup successful", zap.String("user_id", created.ID))
	return AuthResult{User: created, Token: token}, nil
}

// SignIn validates credentials and returns the user with a fresh token.
func (s *Service) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	s.log.Info("signin attempt", zap.String("email", email))

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if u == nil {
		return AuthResult{}, apperr.BadRequest("User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return AuthResult{}, apperr.Unauthorized("Invalid password")
	}

	token, err := s.issueToken(*u)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info("signin successful", zap.String("user_id", u.ID))
	return AuthResult{User: *u, Token: token}, nil
}

func (s *Service) issueToken(u User) (string, error) {
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		s.log.Error("failed to generate token", zap.Error(err))
		return "", apperr.Internal("Failed to generate authentication token").WithCause(err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
