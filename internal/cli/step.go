package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "step <N>",
	Short: "Apply every pending migration up to and including step N",
	Long: `Walk the step directories in numeric order and apply every file not yet
recorded under its directory, stopping after step N. Moving to a step below one
that is already applied is refused; run init to start over.`,
	Args: cobra.ExactArgs(1),
	RunE: runStep,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(stepCmd)
}

func runStep(cmd *cobra.Command, args []string) (err error) {
	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid step %q: must be an integer", args[0])
	}

	ctx := commandContext(cmd)

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e, &err)

	result, err := e.SetStep(ctx, target)
	if err != nil {
		return err
	}

	return printRunResult(cmd.OutOrStdout(), fmt.Sprintf("Step %d", target), result)
}
