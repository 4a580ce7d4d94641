package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/app"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/config"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/event"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository/postgres"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	"github.com/OmSonawane4/Roxiler-Assignment/migrations"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/logger"
)

// env is what every subcommand needs: configuration, a logger and a pool.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// withEnv loads configuration, connects to PostgreSQL and runs fn.
func withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New("ratingctl", cfg.LogLevel)

	pool, err := app.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, &env{cfg: cfg, logger: log, pool: pool})
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ratingctl",
		Short:         "Maintenance commands for the store rating service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(), newRecomputeCommand(), newReindexCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				names, err := database.PendingMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				if err := database.RunMigrations(ctx, e.pool, migrations.FS, e.logger); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the migration files without applying them")
	return cmd
}

func newRecomputeCommand() *cobra.Command {
	var storeID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild store rating aggregates from the ratings table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				c, err := app.NewCache(ctx, e.cfg, e.logger)
				if err != nil {
					return err
				}
				defer c.Close()
				classifier, err := app.NewClassifier(e.cfg)
				if err != nil {
					return err
				}
				events := app.NewEvents(e.cfg, nil, e.logger)
				defer events.Close()

				ratings := service.NewRatingService(
					postgres.NewRatingRepository(e.pool),
					postgres.NewHelpfulRepository(e.pool),
					classifier,
					event.NewProducer(events.Publisher, e.logger),
					c.Cache,
					nil,
					e.logger,
				)

				if storeID != "" {
					agg, err := ratings.RecomputeAggregate(ctx, storeID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d ratings, average %.1f\n", agg.StoreID, agg.ReviewCount, agg.AverageRating)
					return nil
				}
				aggs, err := ratings.RecomputeAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d stores\n", len(aggs))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "recompute a single store by id")
	return cmd
}

func newReindexCommand() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Load every store into the Elasticsearch index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				if e.cfg.ElasticsearchURL == "" {
					return fmt.Errorf("ELASTICSEARCH_URL is not set; the in-process index is rebuilt on every server start")
				}
				engine, err := app.NewSearchEngine(ctx, e.cfg, prometheus.NewRegistry(), e.logger)
				if err != nil {
					return err
				}

				stores := service.NewStoreService(
					postgres.NewStoreRepository(e.pool),
					postgres.NewUserRepository(e.pool),
					engine.Engine,
					nil,
					nil,
					e.logger,
				)
				n, err := stores.Reindex(ctx, batchSize)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d stores\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "stores per bulk request")
	return cmd
}
