package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hellavor/careers-api/internal/api"
	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/config"
	"github.com/hellavor/careers-api/internal/database"
	"github.com/hellavor/careers-api/internal/logger"
	"github.com/hellavor/careers-api/internal/monitoring"
	"github.com/hellavor/careers-api/internal/seed"
	"github.com/hellavor/careers-api/internal/services"
	"github.com/hellavor/careers-api/internal/websocket"
)

func main() {
	started := time.Now()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	seedFile, err := seed.Load(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SeedFile).Msg("Failed to load seed file")
	}

	// Set up database
	if cfg.DBDriver == config.DriverSQLite {
		lock, err := database.LockFile(cfg.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to lock database file; is another server running?")
		}
		defer lock.Release()
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up auth
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize password hasher")
	}
	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}

	store, err := credentialStore(cfg, db, seedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credential store")
	}
	alignCtx, cancelAlign := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	err = services.AlignDummyHash(alignCtx, store, hasher)
	cancelAlign()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to match dummy password hash to stored admins")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()

	// Set up services
	authService := services.NewAuthService(store, hasher, issuer, cfg.StoreTimeout)
	applicationService := services.NewApplicationService(services.NewSQLApplicationRepository(db), hub, cfg.StoreTimeout)
	jobs := services.NewJobCatalog(seedFile.Jobs)

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid trusted proxy list")
	}

	monitor, err := monitoring.NewHealthMonitor(db, cfg.HealthCheckSpec, cfg.StoreTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize health monitor")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		AuthService:        authService,
		ApplicationService: applicationService,
		Jobs:               jobs,
		Issuer:             issuer,
		Hub:                hub,
		Readiness:          monitor,
		AllowedOrigins:     cfg.AllowedOrigins(),
		TrustedProxies:     trustedProxies,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		SecureCookies:      cfg.IsProduction(),
		StartedAt:          started,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server exiting")
}

// credentialStore picks the admin source named by CREDENTIAL_SOURCE.
func credentialStore(cfg *config.Config, db *sqlx.DB, seedFile seed.File) (services.CredentialStore, error) {
	switch cfg.CredentialSource {
	case config.CredentialsStatic:
		if len(seedFile.Admins) == 0 {
			return nil, fmt.Errorf("credential source %q needs at least one admin in %s", cfg.CredentialSource, cfg.SeedFile)
		}
		log.Info().Int("admins", len(seedFile.Admins)).Msg("Using static admin credentials")
		return services.NewStaticCredentialStore(seedFile.Admins), nil
	case config.CredentialsDatabase:
		store := services.NewSQLCredentialStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		n, err := store.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			log.Warn().Msg("No admins provisioned; run provision-admin to create one")
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported credential source %q", cfg.CredentialSource)
	}
}
