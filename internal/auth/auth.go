// Package auth registers journal authors and manages their login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/campaignjournal/internal/apperr"
	"github.com/starford/campaignjournal/internal/models"
	"github.com/starford/campaignjournal/internal/store"
)

const maxPasswordBytes = 72

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Registration is the payload for creating an account.
type Registration struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Validate checks the registration fields.
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(1, models.MaxNameLength)),
		// bcrypt rejects passwords longer than 72 bytes.
		validation.Field(&r.Password, validation.Required, validation.Length(1, maxPasswordBytes)),
		validation.Field(&r.PasswordConfirm,
			validation.Required,
			validation.In(r.Password).Error("passwords do not match")),
	)
}

// Service authenticates users against a UserStore.
type Service struct {
	users store.UserStore
	ttl   time.Duration
	cost  int
	clock func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets how long a login stays valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates an auth service.
func NewService(users store.UserStore, opts ...Option) *Service {
	s := &Service{
		users: users,
		ttl:   DefaultSessionTTL,
		cost:  bcrypt.DefaultCost,
		clock: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register creates a new account. Usernames are unique case-insensitively.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	now := s.clock().UTC()
	sess := &models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.users.CreateSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// Logout ends a session.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// Authenticate returns the user owning a live session token.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.users.SessionUser(ctx, token, s.clock())
}

// PurgeExpired removes expired sessions and reports how many were deleted.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.users.PurgeSessions(ctx, s.clock())
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
