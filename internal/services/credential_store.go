package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hellavor/careers-api/internal/models"
	"github.com/jmoiron/sqlx"
)

// CredentialStore looks up administrator identities. Implementations are
// read-only from the login path and safe for concurrent use.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (models.AdminIdentity, error)
}

// HashLister exposes every stored password hash so the dummy hash used for
// unknown usernames can match their bcrypt cost.
type HashLister interface {
	PasswordHashes(ctx context.Context) ([]string, error)
}

// StaticCredentialStore serves administrators provisioned from the seed file.
// It is immutable after construction and needs no locking.
type StaticCredentialStore struct {
	admins map[string]models.AdminIdentity
}

// NewStaticCredentialStore creates a store over the given identities.
func NewStaticCredentialStore(admins []models.AdminIdentity) *StaticCredentialStore {
	m := make(map[string]models.AdminIdentity, len(admins))
	for _, a := range admins {
		a.Username = strings.TrimSpace(a.Username)
		m[a.Username] = a
	}
	return &StaticCredentialStore{admins: m}
}

// Lookup returns the identity for username or ErrNotFound.
func (s *StaticCredentialStore) Lookup(_ context.Context, username string) (models.AdminIdentity, error) {
	a, ok := s.admins[username]
	if !ok {
		return models.AdminIdentity{}, ErrNotFound
	}
	return a, nil
}

// Len returns the number of provisioned administrators.
func (s *StaticCredentialStore) Len() int { return len(s.admins) }

// PasswordHashes returns the hash of every provisioned administrator.
func (s *StaticCredentialStore) PasswordHashes(context.Context) ([]string, error) {
	hashes := make([]string, 0, len(s.admins))
	for _, a := range s.admins {
		hashes = append(hashes, a.PasswordHash)
	}
	return hashes, nil
}

// SQLCredentialStore reads administrators from the admins table.
type SQLCredentialStore struct {
	db *sqlx.DB
}

// NewSQLCredentialStore creates a new SQLCredentialStore.
func NewSQLCredentialStore(db *sqlx.DB) *SQLCredentialStore {
	return &SQLCredentialStore{db: db}
}

// Lookup retrieves a single administrator by username, including the password hash.
func (s *SQLCredentialStore) Lookup(ctx context.Context, username string) (models.AdminIdentity, error) {
	var admin models.AdminIdentity
	query := s.db.Rebind("SELECT username, password_hash, created_at FROM admins WHERE username = ?")
	if err := s.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AdminIdentity{}, ErrNotFound
		}
		return models.AdminIdentity{}, unavailable("lookup admin", err)
	}
	return admin, nil
}

// Provision inserts a new administrator. It is only called from the
// provisioning command, never from the HTTP API.
func (s *SQLCredentialStore) Provision(ctx context.Context, admin models.AdminIdentity) error {
	admin.Username = strings.TrimSpace(admin.Username)
	if admin.Username == "" {
		return &ValidationError{Field: "username", Reason: "is required"}
	}
	if admin.PasswordHash == "" {
		return &ValidationError{Field: "passwordHash", Reason: "is required"}
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	query := s.db.Rebind("INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, admin.Username, admin.PasswordHash, admin.CreatedAt); err != nil {
		return fmt.Errorf("provision admin %s: %w", admin.Username, err)
	}
	return nil
}

// Count returns how many administrators exist.
func (s *SQLCredentialStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admins"); err != nil {
		return 0, unavailable("count admins", err)
	}
	return n, nil
}

// PasswordHashes returns the hash of every administrator.
func (s *SQLCredentialStore) PasswordHashes(ctx context.Context) ([]string, error) {
	var hashes []string
	if err := s.db.SelectContext(ctx, &hashes, "SELECT password_hash FROM admins"); err != nil {
		return nil, unavailable("list admin hashes", err)
	}
	return hashes, nil
}
