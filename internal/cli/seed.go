package cli

import (
	"context"
	"fmt"
	"sort"

	"knotquiz/internal/config"
	"knotquiz/internal/infra/memory"
	pgstore "knotquiz/internal/infra/postgres"
	"knotquiz/internal/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd imports a quiz catalog file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [catalog-file]",
		Short: "Import quizzes from a JSON or YAML catalog into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg)
	defer logger.Sync()

	if file == "" {
		file = cfg.Quiz.SeedFile
	}
	quizzes := sampleQuizzes()
	if file != "" {
		if quizzes, err = memory.LoadCatalogFile(file); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	ids := make([]string, 0, len(quizzes))
	for id := range quizzes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	loader := pgstore.NewQuizLoader(pool)
	for _, id := range ids {
		if err := loader.Upsert(ctx, quizzes[id]); err != nil {
			return err
		}
		logger.Info("quiz seeded", zap.String("quiz_id", id), zap.Int("questions", len(quizzes[id].Questions)))
	}
	return nil
}
