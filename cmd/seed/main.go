// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	appctx "stocktally/internal/core/context"
	"stocktally/internal/core/id"
	"stocktally/internal/domain/auth"
	"stocktally/internal/domain/catalogs/stockitem"
	"stocktally/internal/infrastructure/storage/postgres"
	"stocktally/internal/infrastructure/storage/postgres/catalog_repo"
	"stocktally/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	adminID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if path := os.Getenv("STOCK_EXPORT_FILE"); path != "" {
		ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: adminID.String(), IsAdmin: true})
		if err := importStockExport(ctx, pool, log, path); err != nil {
			log.Fatalw("failed to import stock export", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedAdminUser creates the initial admin account if it does not exist.
func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@stocktally.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	admin := auth.NewUser(adminEmail, string(hash))
	admin.FirstName = "Admin"
	admin.IsAdmin = true

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, failed_login_attempts,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		admin.ID, admin.Email, admin.PasswordHash, admin.FirstName, admin.LastName,
		admin.IsActive, admin.IsAdmin, admin.FailedLoginAttempts,
		admin.CreatedAt, admin.UpdatedAt, admin.Version,
	)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", admin.ID)
	return admin.ID, nil
}

// importStockExport loads a JSON stock export (the retail system's row
// format) and replaces the stock catalog with it.
func importStockExport(ctx context.Context, pool *postgres.Pool, log *logger.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export file: %w", err)
	}

	var rows []stockitem.SourceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse export file: %w", err)
	}

	txManager := postgres.NewTxManager(pool)
	svc := stockitem.NewService(catalog_repo.NewStockItemRepo(txManager), txManager)

	count, err := svc.Import(ctx, rows)
	if err != nil {
		return err
	}

	if _, err := svc.Reclassify(ctx); err != nil {
		return fmt.Errorf("abc classification: %w", err)
	}

	log.Infow("stock export imported", "file", path, "items", count)
	return nil
}
