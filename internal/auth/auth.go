// Package auth signs owners up and in and tracks their sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"trading-journal/internal/config"
	"trading-journal/internal/models"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
	MaxPasswordLength = 72
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidSession is returned for unknown or expired sessions.
	ErrInvalidSession = errors.New("session is invalid or expired")
)

// InputError reports an unacceptable sign-up field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Service authenticates owners against the users table.
type Service struct {
	db       *gorm.DB
	sessions *SessionManager
	cost     int
	log      *zap.Logger
}

// NewService creates an auth service.
func NewService(db *gorm.DB, sessions *SessionManager, cfg config.Auth, log *zap.Logger) *Service {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, sessions: sessions, cost: cost, log: log.Named("auth")}
}

// Sessions exposes the session table.
func (s *Service) Sessions() *SessionManager { return s.sessions }

// NormalizeEmail trims and lower-cases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &InputError{Field: "email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &InputError{Field: "email", Reason: "is not a valid address"}
	}
	return email, nil
}

// SignUp registers a new owner and returns the created user.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, &InputError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordLength {
		return nil, &InputError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("User signed up", zap.String("user_id", u.ID))
	return u, nil
}

// SignIn checks the credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Info("Sign-in rejected", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	s.log.Info("User signed in", zap.String("user_id", u.ID))
	return sess, nil
}

// Lookup returns the live session with the given id.
func (s *Service) Lookup(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

// SignOut ends the session.
func (s *Service) SignOut(sessionID string) {
	s.sessions.Delete(sessionID)
}
