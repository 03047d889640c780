package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"pocketbook/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Fatal("registered user has no id")
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear")
	}

	token, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token subject = %s, want %s", userID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"bad email", "bob", "not-an-email", "long enough", ErrInvalidEmail},
		{"short password", "bob", "bob@example.com", "short", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("Register = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterUsernameTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "alice", "alice2@example.com", "correct horse")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "nobody@example.com", "whatever!"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email: got %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "wrong password"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("bad password: got %v, want ErrWrongPassword", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrWrongPassword); got != "wrong password" {
		t.Errorf("known error message = %q", got)
	}
	if got := UserMessage(errors.New("sqlite disk io failure")); got != genericAuthMessage {
		t.Errorf("internal error leaked: %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	var gotUserID string
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotUserID != user.ID {
				t.Fatalf("context user id = %s, want %s", gotUserID, user.ID)
			}
		})
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := newTestService(t)
	svc.tokenTTL = -time.Minute
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.VerifyToken(token); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestLoginAttemptLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol", "carol@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < maxLoginAttempts; i++ {
		if _, err := svc.Login(ctx, "carol@example.com", "wrong"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("attempt %d: got %v, want ErrWrongPassword", i+1, err)
		}
	}

	// locked out now, even with the right password
	if _, err := svc.Login(ctx, "carol@example.com", "correct horse"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("after %d failures: got %v, want ErrTooManyAttempts", maxLoginAttempts, err)
	}

	// unknown emails count too
	for i := 0; i < maxLoginAttempts; i++ {
		if _, err := svc.Login(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("ghost attempt %d: got %v", i+1, err)
		}
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("ghost lockout: got %v, want ErrTooManyAttempts", err)
	}
}

func TestLoginSuccessClearsAttempts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave", "dave@example.com", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < maxLoginAttempts-1; i++ {
		if _, err := svc.Login(ctx, "dave@example.com", "wrong"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	if _, err := svc.Login(ctx, "dave@example.com", "correct horse"); err != nil {
		t.Fatalf("login under the limit: %v", err)
	}

	// counter restarted: the next failure is an ordinary wrong password
	if _, err := svc.Login(ctx, "dave@example.com", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("after reset: got %v, want ErrWrongPassword", err)
	}
}
