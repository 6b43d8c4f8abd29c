package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"study-session-service/internal/config"
	pgmigrations "study-session-service/internal/infra/postgres/migrations"
)

var errPostgresNotConfigured = errors.New("postgres url not configured: collections and submissions need a database to migrate")

// NewMigrateCmd applies, or with --rollback reverts, the collection and
// submission schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or roll back the collections and submissions tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			if rollback {
				return rollbackMigrationsWithConfig(cmd.Context(), cfg, logger)
			}
			return runMigrationsWithConfig(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last applied migration group")
	return cmd
}

// runMigrationsWithConfig brings the study schema up to date. The server
// calls it on start when Postgres is the item source.
func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return withMigrator(ctx, cfg, func(m *migrate.Migrator) error {
		group, err := m.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("apply study schema: %w", err)
		}
		if group.IsZero() {
			logger.Info("study schema up to date")
			return nil
		}
		logger.Info("study schema migrated", "group", group.String(), "migrations", migrationNames(group))
		return nil
	})
}

func rollbackMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return withMigrator(ctx, cfg, func(m *migrate.Migrator) error {
		group, err := m.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("roll back study schema: %w", err)
		}
		if group.IsZero() {
			logger.Info("nothing to roll back")
			return nil
		}
		logger.Warn("study schema rolled back", "group", group.String(), "migrations", migrationNames(group))
		return nil
	})
}

// withMigrator opens the database, takes the migration lock and hands the
// migrator to fn.
func withMigrator(ctx context.Context, cfg config.Config, fn func(*migrate.Migrator) error) error {
	if cfg.Postgres.URL == "" {
		return errPostgresNotConfigured
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migration tables: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("lock study schema: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	return fn(migrator)
}

func migrationNames(group *migrate.MigrationGroup) []string {
	names := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		names = append(names, m.Name)
	}
	return names
}
