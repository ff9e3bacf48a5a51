package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
	"github.com/KaramelBytes/churnguard-cli/internal/utils"
)

var (
	mapOutput string
	mapMode   string
)

var mapCmd = &cobra.Command{
	Use:   "map <file.csv>...",
	Short: "Resolve which column of which file plays each role and print the mapping JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateInputs(args); err != nil {
			return err
		}
		mode, err := resolveMode(mapMode)
		if err != nil {
			return err
		}
		m, warnings, err := pipeline.ResolveFiles(args, mode, tableOptions(), logger)
		for _, w := range warnings {
			warnf(cmd.ErrOrStderr(), "%s", w)
		}
		if err != nil {
			return err
		}
		js, err := m.JSON()
		if err != nil {
			return err
		}
		if mapOutput != "" {
			if err := utils.SafeWriteFile(mapOutput, []byte(js+"\n")); err != nil {
				return fmt.Errorf("write mapping: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote mapping to %s\n", mapOutput)
		}
		fmt.Fprintln(cmd.OutOrStdout(), js)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "also write the mapping JSON to this file")
	mapCmd.Flags().StringVar(&mapMode, "mode", "", "resolution mode: exclusive|independent (overrides config)")
}
