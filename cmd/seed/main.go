// Command seed loads users and properties from CSV and prints dev tokens.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/auth"
	"github.com/MrJamesThe3rd/revstay/internal/config"
	"github.com/MrJamesThe3rd/revstay/internal/database"
	"github.com/MrJamesThe3rd/revstay/internal/logging"
	propertyStore "github.com/MrJamesThe3rd/revstay/internal/property/store"
	"github.com/MrJamesThe3rd/revstay/internal/seed"
	"github.com/MrJamesThe3rd/revstay/internal/user"
	userStore "github.com/MrJamesThe3rd/revstay/internal/user/store"
)

func main() {
	usersPath := flag.String("users", "", "CSV of users (username,full_name,email,role,phone)")
	propertiesPath := flag.String("properties", "", "CSV of properties (seller,title,description,property_type,location,price)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, *usersPath, *propertiesPath); err != nil {
		logger.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, usersPath, propertiesPath string) error {
	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		return err
	}

	seeder := seed.NewSeeder(userStore.New(db), propertyStore.New(db), logger)

	admin, err := seeder.EnsureAdmin(ctx)
	if err != nil {
		return err
	}

	accounts := []*user.User{admin}

	if usersPath != "" {
		rows, err := parseFile(usersPath, seed.ParseUsers)
		if err != nil {
			return err
		}

		seeded, err := seeder.Users(ctx, rows)
		if err != nil {
			return err
		}

		accounts = append(accounts, seeded...)
	}

	if propertiesPath != "" {
		rows, err := parseFile(propertiesPath, seed.ParseProperties)
		if err != nil {
			return err
		}

		if _, err := seeder.Properties(ctx, rows); err != nil {
			return err
		}
	}

	return printTokens(auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), accounts)
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rows, nil
}

func printTokens(issuer *auth.Issuer, accounts []*user.User) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tTOKEN")

	for _, u := range accounts {
		token, err := issuer.Issue(u.Username, u.Role)
		if err != nil {
			return fmt.Errorf("issuing token for %s: %w", u.Username, err)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Role, token)
	}

	return w.Flush()
}
