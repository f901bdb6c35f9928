// Command provision-admin creates an administrator account out of band.
//
// The password is read from stdin and never echoed:
//
//	printf '%s\n' "$PASSWORD" | provision-admin -username alice
//	printf '%s\n' "$PASSWORD" | provision-admin -username alice -print >> seed.yaml
//
// It may run while the server is up. The server's lock file only keeps a
// second server off the database; this command waits on SQLite's busy
// timeout instead. The server reads admin hash costs at startup, so restart
// it after provisioning with a different BCRYPT_COST.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/config"
	"github.com/hellavor/careers-api/internal/database"
	"github.com/hellavor/careers-api/internal/logger"
	"github.com/hellavor/careers-api/internal/models"
	"github.com/hellavor/careers-api/internal/services"
)

func main() {
	username := flag.String("username", "", "administrator username")
	printOnly := flag.Bool("print", false, "print a seed.yaml admins entry instead of writing to the database")
	flag.Parse()

	cfg, err := config.LoadStorage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	if err := run(cfg, *username, *printOnly, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("Failed to provision admin")
	}
}

func run(cfg *config.Config, username string, printOnly bool, in io.Reader, out io.Writer) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("-username is required")
	}

	password, err := readPassword(in)
	if err != nil {
		return err
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	admin := models.AdminIdentity{Username: username, PasswordHash: hash}

	if printOnly {
		return yaml.NewEncoder(out).Encode(map[string][]models.AdminIdentity{"admins": {admin}})
	}

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := services.NewSQLCredentialStore(db).Provision(ctx, admin); err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("Admin provisioned")
	return nil
}

// readPassword takes the first line of in, without its line ending.
func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
