package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hellavor/careers-api/internal/auth"
)

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
	DummyVerify(plaintext string)
}

// TokenIssuer mints access tokens for an authenticated username.
type TokenIssuer interface {
	Issue(username string) (string, time.Time, error)
}

// AuthServiceProvider defines the interface for admin authentication.
type AuthServiceProvider interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

// AuthService verifies administrator credentials and issues tokens.
type AuthService struct {
	store   CredentialStore
	hasher  PasswordVerifier
	issuer  TokenIssuer
	timeout time.Duration
}

// NewAuthService creates a new AuthService. timeout bounds each credential lookup.
func NewAuthService(store CredentialStore, hasher PasswordVerifier, issuer TokenIssuer, timeout time.Duration) *AuthService {
	return &AuthService{store: store, hasher: hasher, issuer: issuer, timeout: timeout}
}

// Login verifies username/password. Unknown usernames and wrong passwords both
// return ErrUnauthorized after a full-cost hash comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	admin, err := s.store.Lookup(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.hasher.DummyVerify(password)
		return LoginResult{}, ErrUnauthorized
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return LoginResult{}, unavailable("lookup admin", err)
		}
		return LoginResult{}, fmt.Errorf("lookup admin: %w", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		return LoginResult{}, ErrUnauthorized
	}

	token, expiresAt, err := s.issuer.Issue(admin.Username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Username: admin.Username, Token: token, ExpiresAt: expiresAt}, nil
}

var _ TokenIssuer = (*auth.Issuer)(nil)
var _ PasswordVerifier = (*auth.Hasher)(nil)

// AlignDummyHash rebuilds the hasher's dummy hash at the bcrypt cost of the
// hashes held by store, so unknown usernames cost as much as wrong passwords.
// Stores that cannot list their hashes are left alone.
func AlignDummyHash(ctx context.Context, store CredentialStore, hasher *auth.Hasher) error {
	lister, ok := store.(HashLister)
	if !ok {
		return nil
	}
	hashes, err := lister.PasswordHashes(ctx)
	if err != nil {
		return err
	}
	return hasher.CalibrateDummy(hashes)
}
