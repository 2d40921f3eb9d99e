package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"mechedu-quiz-service/internal/config"
	pgmigrations "mechedu-quiz-service/internal/infra/postgres/migrations"
	"mechedu-quiz-service/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the quiz catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runMigrationsWithConfig(cmd.Context(), cfg, log)
		},
	}
}

// loadConfig reads the config file and builds the logger it asks for.
func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func openBun(cfg config.Config) (*bun.DB, error) {
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("database schema up to date")
		return nil
	}
	log.Info("migrations applied", "group", group.ID, "migrations", len(group.Migrations))
	return nil
}
