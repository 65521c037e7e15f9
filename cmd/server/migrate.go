package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"perfreview/internal/platform/config"
	"perfreview/internal/platform/db"
	"perfreview/internal/platform/logging"
)

var seedTenant string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Applies embedded SQL migrations. With --seed-tenant the tenant also gets the default rating scale and company feature settings.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&seedTenant, "seed-tenant", "", "Tenant id to seed with review defaults")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Setup(cfg)

	ctx := cmd.Context()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	if seedTenant != "" {
		if err := db.Seed(ctx, pool, seedTenant, cfg.Review); err != nil {
			return err
		}
		slog.Info("tenant seeded", "tenantId", seedTenant)
	}
	return nil
}
