package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/study-service/config"
	database "github.com/duynhne/study-service/internal/core"
	"github.com/duynhne/study-service/internal/core/repository"
	logicv1 "github.com/duynhne/study-service/internal/logic/v1"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
			applied, err := database.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info().Msg("Database schema is up to date")
				return nil
			}
			log.Info().Strs("applied", applied).Msg("Database migrations complete")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database and load development fixtures",
	Long: `seed applies pending migrations, empties every table and inserts the
development users (greg/password123, testuser/test123) with sample study
sessions and pomodoro blocks.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
			if _, err := database.Migrate(ctx, pool); err != nil {
				return err
			}

			hasher, err := logicv1.NewPasswordHasher(cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}

			truncate := func(ctx context.Context) error { return database.TruncateAll(ctx, pool) }
			sum, err := database.Reseed(ctx, truncate, repository.NewPgx(pool), hasher.Hash)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			logSeedSummary(sum)
			return nil
		})
	},
}

// withPool runs fn against a PostgreSQL pool built from the loaded configuration.
func withPool(ctx context.Context, fn func(context.Context, *config.Config, *pgxpool.Pool) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return errors.New("this command requires DB_DRIVER=postgres")
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
