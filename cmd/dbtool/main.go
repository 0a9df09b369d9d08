// Command dbtool checks database connectivity, applies migrations and seeds
// the first admin account, which self sign-up cannot create.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"farmart/internal/auth"
	"farmart/internal/config"
	"farmart/internal/database"
	"farmart/internal/model"
	"farmart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply pending migrations")
	adminEmail := flag.String("admin-email", "", "seed an admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for the seeded admin")
	adminName := flag.String("admin-name", "Administrator", "display name for the seeded admin")
	flag.Parse()

	if err := run(*migrate, *adminEmail, *adminPassword, *adminName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(migrate bool, adminEmail, adminPassword, adminName string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	if err := report(ctx, pool); err != nil {
		return err
	}

	if migrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return err
		}
	}

	if adminEmail != "" {
		return seedAdmin(ctx, pool, logger, adminEmail, adminPassword, adminName)
	}
	return nil
}

func report(ctx context.Context, pool *pgxpool.Pool) error {
	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("failed to query current database: %w", err)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	rows, err := pool.Query(ctx, "SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname")
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	fmt.Println("\nAvailable databases:")
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan database name: %w", err)
		}
		fmt.Printf("  - %s\n", name)
	}
	return rows.Err()
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, email, password, name string) error {
	data := model.UserData{DisplayName: name, Email: email, Password: password, Role: model.RoleAdmin}
	if err := data.Validate(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	accounts := repository.NewAccountRepository(pool, logger)
	if err := accounts.Create(ctx, &model.Account{UID: id, Email: email, PasswordHash: hash, CreatedAt: now}); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	users := repository.NewUserRepository(pool, logger)
	user := &model.User{ID: id, DisplayName: name, Email: email, Role: model.RoleAdmin, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := users.Create(ctx, user); err != nil {
		if delErr := accounts.Delete(ctx, id); delErr != nil {
			logger.Error().Err(delErr).Str("user_id", id).Msg("failed to remove orphaned admin account")
		}
		return fmt.Errorf("failed to create admin profile: %w", err)
	}

	fmt.Printf("Admin %s created with id %s\n", email, id)
	return nil
}
