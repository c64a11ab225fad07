package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/stepmigrate/internal/ledger"
)

var historyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "history",
	Short: "List applied migrations in the order they were applied",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) (err error) {
	ctx := commandContext(cmd)

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e, &err)

	records, err := e.History(ctx)
	if err != nil {
		return err
	}

	return writeHistory(cmd.OutOrStdout(), records)
}

func writeHistory(out io.Writer, records []ledger.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No migrations applied.")

		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tDIRECTORY\tAPPLIED AT")

	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Filename, r.Directory, r.AppliedAt.UTC().Format(time.DateTime))
	}

	return w.Flush()
}
