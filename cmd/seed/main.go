// Command seed creates the default admin account when it does not exist yet.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	pgdb "github.com/alanyang/agentflow/internal/adapter/postgres"
	pguser "github.com/alanyang/agentflow/internal/adapter/postgres/user"
	"github.com/alanyang/agentflow/internal/adapter/security"
	"github.com/alanyang/agentflow/internal/logging"
	authsvc "github.com/alanyang/agentflow/internal/service/auth"
)

type seedConfig struct {
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	AdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin123"`
	BcryptCost    int    `envconfig:"BCRYPT_COST" default:"12"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"text"`
}

func main() {
	_ = godotenv.Load()

	var cfg seedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logging.Setup("text", "info")
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogFormat, "info")

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg seedConfig) error {
	pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgdb.Migrate(ctx, pool); err != nil {
		return err
	}

	// Setup never issues tokens, so no token manager is needed here.
	svc := authsvc.NewService(pguser.New(pool), security.NewBcryptHasher(cfg.BcryptCost), nil)

	u, err := svc.Setup(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if errors.Is(err, authsvc.ErrAdminExists) {
		slog.Info("admin already exists", "email", cfg.AdminEmail)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin created", "email", u.Email, "user_id", u.ID)
	return nil
}
