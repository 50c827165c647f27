package v1

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/study-service/internal/core/domain"
	"github.com/duynhne/study-service/middleware"
)

// AuthService implements registration, login and server-side sessions.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database or SQL directly.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	hasher     *PasswordHasher
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, hasher *PasswordHasher, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	resp, err := s.register(ctx, req)
	recordAuthAttempt(span, "register", err)
	return resp, err
}

func (s *AuthService) register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, ErrMissingRegistrationFields
	}

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUsernameTaken)
	}

	taken, err = s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("register user %q: %w", req.Username, ErrEmailTaken)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.users.Create(ctx, req.Username, req.Email, passwordHash)
	if err != nil {
		// Lost a race with a concurrent registration.
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "email" {
				return nil, fmt.Errorf("register user %q: %w", req.Username, ErrEmailTaken)
			}
			return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUsernameTaken)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	user := domain.User{ID: userID, Username: req.Username, Email: req.Email}
	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session. Unknown usernames and wrong
// passwords take the same time and are reported by the Web layer identically.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	resp, err := s.login(ctx, req)
	recordAuthAttempt(span, "login", err)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, ErrMissingLoginFields
	}

	row, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if row == nil {
		s.hasher.VerifyMissing(req.Password)
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrUserNotFound)
	}

	if !s.hasher.Verify(row.PasswordHash, req.Password) {
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	user := domain.User{ID: row.ID, Username: row.Username, Email: row.Email}
	return s.openSession(ctx, user)
}

// Logout deletes the session behind token. An empty or unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Bool("session.present", token != ""),
	))
	defer span.End()

	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CheckSession returns the public projection of the session's user.
func (s *AuthService) CheckSession(ctx context.Context, userID int) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.check_session", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", userID),
	))
	defer span.End()

	if userID <= 0 {
		return nil, ErrNotAuthenticated
	}

	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %d: %w", userID, err)
	}
	if row == nil {
		return nil, fmt.Errorf("lookup user %d: %w", userID, ErrUserNotFound)
	}

	return &domain.User{ID: row.ID, Username: row.Username, Email: row.Email}, nil
}

// ResolveSession maps a session token to its user id. Expired sessions are
// deleted and reported as absent.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (int, bool, error) {
	row, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return 0, false, fmt.Errorf("query session: %w", err)
	}
	if row == nil {
		return 0, false, nil
	}

	if row.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return 0, false, fmt.Errorf("delete expired session: %w", err)
		}
		return 0, false, nil
	}

	return row.UserID, true, nil
}

func (s *AuthService) openSession(ctx context.Context, user domain.User) (*domain.AuthResponse, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// newSessionToken returns 32 random bytes, hex encoded.
func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func recordAuthAttempt(span trace.Span, operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("auth.success", err == nil))
	middleware.AuthAttempts.WithLabelValues(operation, result).Inc()
}
