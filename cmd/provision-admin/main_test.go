package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/config"
	"github.com/hellavor/careers-api/internal/database"
	"github.com/hellavor/careers-api/internal/seed"
	"github.com/hellavor/careers-api/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BcryptCost:   bcrypt.MinCost,
		DBDriver:     config.DriverSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "careers.db"),
		StoreTimeout: 5 * time.Second,
	}
}

func TestRunPrintEmitsSeedEntry(t *testing.T) {
	var out bytes.Buffer
	err := run(testConfig(t), "alice", true, strings.NewReader("s3cret pass\n"), &out)
	require.NoError(t, err)

	assert.NotContains(t, out.String(), "s3cret")

	var file seed.File
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &file))
	require.Len(t, file.Admins, 1)
	assert.Equal(t, "alice", file.Admins[0].Username)
	require.NoError(t, file.Validate())

	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, hasher.Verify("s3cret pass", file.Admins[0].PasswordHash))
}

func TestRunWritesDatabase(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, run(cfg, "alice", false, strings.NewReader("pw"), &bytes.Buffer{}))

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	admin, err := services.NewSQLCredentialStore(db).Lookup(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", admin.Username)

	// Provisioning the same name twice fails.
	assert.Error(t, run(cfg, "alice", false, strings.NewReader("pw"), &bytes.Buffer{}))
}

func TestRunRejectsMissingInput(t *testing.T) {
	cfg := testConfig(t)
	assert.Error(t, run(cfg, "", true, strings.NewReader("pw\n"), &bytes.Buffer{}))
	assert.Error(t, run(cfg, "alice", true, strings.NewReader("\n"), &bytes.Buffer{}))
	assert.Error(t, run(cfg, "alice", true, strings.NewReader(""), &bytes.Buffer{}))
}

func TestRunWhileServerHoldsLock(t *testing.T) {
	cfg := testConfig(t)

	server, err := database.New(cfg)
	require.NoError(t, err)
	defer server.Close()
	require.NoError(t, database.Migrate(server))

	lock, err := database.LockFile(cfg.DatabasePath)
	require.NoError(t, err)
	defer lock.Release()

	require.NoError(t, run(cfg, "alice", false, strings.NewReader("pw"), &bytes.Buffer{}))

	admin, err := services.NewSQLCredentialStore(server).Lookup(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", admin.Username)
}
