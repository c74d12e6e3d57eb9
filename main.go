package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/logging"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ordering",
	Short:         "Order management API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(workerCmd)
}

// bootstrap loads the configuration and builds the process logger.
func bootstrap() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDB opens the configured database and brings the schema up to date.
func openDB(cfg config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := repositories.Open(cfg.Database, logger, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		_ = repositories.Close(db)
		return nil, err
	}
	return db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer repositories.Close(db)

		logger.Info("migrations applied", "driver", cfg.Database.Driver)
		return nil
	},
}
