package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mechedu-quiz-service/internal/config"
	"mechedu-quiz-service/internal/infra/memory"
	"mechedu-quiz-service/internal/infra/postgres"
	"mechedu-quiz-service/internal/logger"
)

// NewSeedCmd writes the built-in catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in quiz catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if !skipMigrate {
				if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
					return err
				}
			}
			return runSeed(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations first")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	content := memory.DefaultContent()
	n, err := postgres.Seed(ctx, db, content.Quizzes, content.Questions)
	if err != nil {
		return err
	}
	log.Info("catalog seeded", "quizzes", len(content.Quizzes), "questions", n)
	return nil
}
