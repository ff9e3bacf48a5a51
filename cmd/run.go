package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
)

var runFlagsState runFlags

var runCmd = &cobra.Command{
	Use:   "run [file.csv]...",
	Short: "Map columns and score customers in one step",
	Long: `Resolves the column mapping for the given files and immediately scores every
customer, writing the RED LIGHT list. Without file arguments the paths are
read interactively from stdin, one per line, ending with an empty line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			p, err := promptFiles(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			paths = p
		}
		if err := validateInputs(paths); err != nil {
			return err
		}
		mode, err := resolveMode(runFlagsState.mode)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Analyzing CSV structure...")
		m, warnings, err := pipeline.ResolveFiles(paths, mode, tableOptions(), logger)
		for _, w := range warnings {
			warnf(cmd.ErrOrStderr(), "%s", w)
		}
		if err != nil {
			return err
		}
		if verbose {
			js, err := m.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Column mapping: %s\n", js)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running churn model...")
		return score(cmd, paths, m, &runFlagsState)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd, &runFlagsState)
	runCmd.Flags().StringVar(&runFlagsState.mode, "mode", "", "resolution mode: exclusive|independent (overrides config)")
}
