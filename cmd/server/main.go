package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"skyroute-backend/internal/config"
	"skyroute-backend/internal/database"
	"skyroute-backend/internal/db"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/migrations"
	"skyroute-backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "skyroute",
	Short: "SkyRoute cargo C209/C208 registry",
	Long: `SkyRoute issues monthly C209 and C208 document numbers for bonded cargo,
keeps the entry register and prints In Bond Control Sheets.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config.yaml (overrides SKYROUTE_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd, operatorCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// runtime is what every subcommand needs before doing real work.
type runtime struct {
	cfg  *config.Config
	log  *logger.ZapLogger
	pool *pgxpool.Pool
}

func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
	rt.log.Sync()
}

// bootstrap loads configuration, builds the logger, sets the operations
// zone and connects to PostgreSQL.
func bootstrap(cmd *cobra.Command) (*runtime, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		os.Setenv("SKYROUTE_CONFIG", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log.Format, cfg.Log.Level)
	if cfg.Source != "" {
		log.Info("config loaded", "file", cfg.Source)
	} else {
		log.Info("no config file found, using defaults and environment")
	}

	if err := timeutil.SetLocation(cfg.Timezone); err != nil {
		log.Warn("unknown timezone, keeping default", "timezone", cfg.Timezone, "error", err)
	}

	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	return &runtime{cfg: cfg, log: log, pool: pool}, nil
}

func runMigrations(ctx context.Context, rt *runtime) error {
	migrator := database.NewMigrator(rt.pool, migrations.FS, ".", rt.log)
	applied, err := migrator.RunMigrations(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	rt.log.Info("migrations complete", "applied", applied)
	return nil
}
