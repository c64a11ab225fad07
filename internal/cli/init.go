package cli

import (
	"github.com/spf13/cobra"

	"github.com/aqasim81/stepmigrate/internal/config"
)

var initCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "init",
	Short: "Reset the database and apply step 0",
	Long: `Drop every user table and view, recreate an empty migration ledger and
apply the SQL files of the step 0 directory in lexical order. Without a "0_"
directory the database is left empty but initialized.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) (err error) {
	ctx := commandContext(cmd)

	appLogger().Debug("Connecting", "driver", AppConfig.Driver, "database", config.RedactURL(AppConfig.Database))

	e := newEngine()
	defer closeEngine(e, &err)

	result, err := e.Init(ctx, AppConfig.Database, AppConfig.DataDir)
	if err != nil {
		return err
	}

	return printRunResult(cmd.OutOrStdout(), "Init", result)
}
