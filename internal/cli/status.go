package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aqasim81/stepmigrate/internal/engine"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display, for every step directory, how many of its files are recorded in
the ledger, followed by the total number of applied migrations.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "", "output format (text, json), defaults to the configured format")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) (err error) {
	format := AppConfig.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	ctx := commandContext(cmd)

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e, &err)

	report, err := e.Status(ctx)
	if err != nil {
		return err
	}

	return writeStatus(cmd.OutOrStdout(), report, format)
}

func writeStatus(out io.Writer, report *engine.StatusReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(report)
	case "text", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tDIRECTORY\tAPPLIED\tTOTAL")

		for _, d := range report.Directories {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", d.Step, d.Name, d.Applied, d.Total)
		}

		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\nApplied migrations: %d\n", report.TotalApplied)

		return nil
	default:
		return fmt.Errorf("unsupported format %q (want text or json)", format)
	}
}
