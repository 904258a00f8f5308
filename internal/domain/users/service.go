package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Error types for user domain operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

const MinPasswordLength = 8

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         auth.Role  `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Repository interface {
	// GetByLogin matches either the username or the email address.
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// CreateParams holds the parameters for creating an administrator.
type CreateParams struct {
	Username string    `validate:"required,min=3,max=80"`
	Email    string    `validate:"required,email,max=120"`
	Password string    `validate:"required"`
	FullName string    `validate:"max=120"`
	Role     auth.Role `validate:"required"`
}

// Service handles administrator accounts.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Authenticate checks credentials. Unknown users, wrong passwords and
// deactivated accounts all report ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByLogin(ctx, login)
	if errors.Is(err, ErrUserNotFound) {
		// Hash anyway so response time does not reveal whether the user exists.
		_ = auth.CheckPassword(dummyHash(), password)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil || !user.IsActive {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.FullName = strings.TrimSpace(params.FullName)
	params.Role = auth.NormalizeRole(string(params.Role))
	if err := content.Validate(params); err != nil {
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		FullName:     params.FullName,
		Role:         params.Role,
		IsActive:     true,
	})
}

// Bootstrap creates the initial administrator unless the username or email
// is already registered. created reports whether a row was inserted.
func (s *Service) Bootstrap(ctx context.Context, params CreateParams) (created bool, err error) {
	if params.Role == "" {
		params.Role = auth.RoleSuperAdmin
	}
	if _, err := s.Create(ctx, params); err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			s.logger.Info().Str("username", params.Username).Msg("admin user already exists, skipping bootstrap")
			return false, nil
		}
		return false, err
	}
	s.logger.Info().Str("username", params.Username).Msg("bootstrapped admin user")
	return true, nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return content.ValidationError{Field: "password", Message: ErrPasswordTooShort.Error()}
	}
	return nil
}

// dummyHash is compared against when the login matches no user.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("cvisual-unknown-user")
	if err != nil {
		return ""
	}
	return hash
})
