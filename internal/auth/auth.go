// Package auth handles registration, login and bearer-token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

// Sign-in failures a user can do something about. Everything else is
// reported through the generic message.
var (
	ErrEmptyUsername   = errors.New("username is required")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrWrongPassword   = errors.New("wrong password")
	ErrUserNotFound    = errors.New("no account with this email")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailInUse      = errors.New("email already registered")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrTooManyAttempts = errors.New("too many attempts, try again later")
)

const genericAuthMessage = "authentication failed, please try again"

// UserMessage maps an authentication error onto the message shown to the
// user. Unknown failures collapse to a generic message so internals never
// leak into responses.
func UserMessage(err error) string {
	for _, known := range []error{
		ErrEmptyUsername, ErrInvalidEmail, ErrWrongPassword, ErrUserNotFound,
		ErrUsernameTaken, ErrEmailInUse, ErrWeakPassword, ErrTooManyAttempts,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return genericAuthMessage
}

// Failed logins per email before further attempts are rejected, and how
// long the counter lasts. A successful login clears it.
const (
	maxLoginAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
)

type loginAttempts struct {
	count     int
	firstSeen time.Time
}

type Service struct {
	storage   *storage.SQLiteRepository
	jwtSecret []byte
	tokenTTL  time.Duration

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

func NewService(storage *storage.SQLiteRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		storage:   storage,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		attempts:  make(map[string]*loginAttempts),
	}
}

// attemptsExceeded reports whether the email is locked out. Counters whose
// window has passed are dropped on sight.
func (s *Service) attemptsExceeded(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[email]
	if !ok {
		return false
	}
	if time.Since(a.firstSeen) > loginAttemptWindow {
		delete(s.attempts, email)
		return false
	}
	return a.count >= maxLoginAttempts
}

func (s *Service) recordFailedAttempt(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[email]
	if !ok || time.Since(a.firstSeen) > loginAttemptWindow {
		s.attempts[email] = &loginAttempts{count: 1, firstSeen: time.Now()}
		return
	}
	a.count++
}

func (s *Service) clearAttempts(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, email)
}

// Register creates a user with a bcrypt-hashed password. The username is
// checked first so the caller gets the specific taken-name error rather
// than a bare uniqueness violation.
func (s *Service) Register(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, ErrEmptyUsername
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return core.User{}, ErrWeakPassword
	}

	taken, err := s.storage.UsernameExists(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return core.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.User{}, ErrEmailInUse
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies the credentials and returns a signed HS256 token.
// Repeated failures for the same email are rejected for a while without
// touching bcrypt.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	attemptKey := strings.ToLower(strings.TrimSpace(email))
	if s.attemptsExceeded(attemptKey) {
		slog.WarnContext(ctx, "Login attempts exceeded", "email", attemptKey)
		return "", ErrTooManyAttempts
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		s.recordFailedAttempt(attemptKey)
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailedAttempt(attemptKey)
		return "", ErrWrongPassword
	}
	s.clearAttempts(attemptKey)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return signed, nil
}

// VerifyToken checks the signature and expiry and returns the user id.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}
