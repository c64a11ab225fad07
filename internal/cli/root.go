package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aqasim81/stepmigrate/internal/config"
	"github.com/aqasim81/stepmigrate/internal/engine"
	"github.com/aqasim81/stepmigrate/internal/logging"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// AppLogger is built from AppConfig during PersistentPreRunE.
var AppLogger *slog.Logger //nolint:gochecknoglobals // standard Cobra pattern for shared state

// rootCmd is the base command for the stepmigrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "stepmigrate",
	Version: version,
	Short:   "Staged, re-runnable SQL migrations",
	Long: `stepmigrate applies numbered directories of SQL files ("0_init", "1_seed", ...)
to a database. init wipes the database and applies step 0; step moves forward
to a later step. Re-creating an existing object or re-inserting an existing row
is tolerated, so migration files are safe to re-run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "path to an optional .env file")
	rootCmd.PersistentFlags().String("driver", "", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("database", "", "SQLite file path or PostgreSQL connection string")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the numbered step directories")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > .env > file.
func loadConfig(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.MergeEnv(cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	AppConfig = cfg
	AppLogger = logger

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"driver":    &cfg.Driver,
		"database":  &cfg.Database,
		"data-dir":  &cfg.DataDir,
		"log-level": &cfg.LogLevel,
	}

	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
}

// newLogger builds the diagnostic logger. Logs always go to w so that
// command output on stdout stays machine-readable.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return logging.New(w, level, cfg.Format), nil
}

// appLogger returns AppLogger, or a discarding logger before loadConfig ran.
func appLogger() *slog.Logger {
	if AppLogger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return AppLogger
}

// newEngine builds an Engine from AppConfig and AppLogger.
func newEngine() *engine.Engine {
	logger := appLogger()

	return engine.New(
		engine.WithDriver(AppConfig.Driver),
		engine.WithLogger(logger),
		engine.WithProgressCallback(logging.ProgressLogger(logger)),
		engine.WithLockTimeout(AppConfig.LockTimeout),
		engine.WithStatementTimeout(AppConfig.StatementTimeout),
	)
}
