package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CredentialsStatic   = "static"
	CredentialsDatabase = "database"

	sampleSecret = "change-me"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int    `env:"PORT,default=4000"`
	AppEnv     string `env:"APP_ENV,default=development"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`

	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,default=1h"`
	BcryptCost int           `env:"BCRYPT_COST,default=10"`

	DBDriver     string `env:"DB_DRIVER,default=sqlite"`
	DatabasePath string `env:"DATABASE_PATH,default=./careers.db"`
	Postgres     PostgresConfig

	CredentialSource string `env:"CREDENTIAL_SOURCE,default=database"`
	SeedFile         string `env:"SEED_FILE,default=./seed.yaml"`

	StoreTimeout       time.Duration `env:"STORE_TIMEOUT,default=5s"`
	LoginRatePerMinute int           `env:"LOGIN_RATE_PER_MINUTE,default=10"`
	CORSOrigins        string        `env:"CORS_ORIGINS,default=http://localhost:3000"`
	TrustedProxies     string        `env:"TRUSTED_PROXIES"`
	HealthCheckSpec    string        `env:"HEALTH_CHECK_SPEC,default=@every 30s"`
}

// PostgresConfig holds the connection parameters for the postgres driver.
type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN"`
	Host     string `env:"POSTGRES_HOST,default=localhost"`
	Port     string `env:"POSTGRES_PORT,default=5432"`
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Database string `env:"POSTGRES_DB"`
	SSLMode  string `env:"POSTGRES_SSLMODE,default=disable"`
}

// Load reads an optional .env file, then decodes and validates the environment.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv()
}

// LoadStorage is Load for offline tools that never sign tokens, so
// JWT_SECRET may be absent.
func LoadStorage() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv decodes the configuration from the current environment without touching .env.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.IsProduction() && c.JWTSecret == sampleSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL: %s", c.TokenTTL)
	}
	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %d", c.LoginRatePerMinute)
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}

	switch c.CredentialSource {
	case CredentialsStatic, CredentialsDatabase:
	default:
		return fmt.Errorf("unsupported CREDENTIAL_SOURCE: %s (supported: static, database)", c.CredentialSource)
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only what offline tools need: the database settings
// and the bcrypt cost.
func (c *Config) ValidateStorage() error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("invalid STORE_TIMEOUT: %s", c.StoreTimeout)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH must be set when DB_DRIVER=sqlite")
		}
	case DriverPostgres:
		if _, err := c.PostgresDSN(); err != nil {
			return fmt.Errorf("postgres configuration error: %w", err)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s (supported: sqlite, postgres)", c.DBDriver)
	}
	return nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
}

// AllowedOrigins splits CORS_ORIGINS into its entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES, a comma-separated list of IPs
// or CIDRs whose X-Forwarded-For and X-Real-IP headers are believed.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// PostgresDSN returns POSTGRES_DSN when set, otherwise builds one from the individual parts.
func (c *Config) PostgresDSN() (string, error) {
	p := c.Postgres
	if p.DSN != "" {
		return p.DSN, nil
	}
	if p.Host == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if p.User == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if p.Database == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := p.Port
	if port == "" {
		port = "5432"
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", p.Host, port, p.User, p.Database, sslMode)
	if p.Password != "" {
		dsn += " password=" + p.Password
	}
	return dsn, nil
}
