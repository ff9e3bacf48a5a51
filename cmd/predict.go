package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
	"github.com/KaramelBytes/churnguard-cli/internal/report"
	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/utils"
)

var (
	predictFlags   runFlags
	predictMapping string
	predictMapFile string
)

var predictCmd = &cobra.Command{
	Use:   "predict <file.csv>...",
	Short: "Score customers using a mapping produced by 'map'",
	Long: `Joins the mapped columns per customer, labels and scores every customer and
writes the RED LIGHT list. The mapping is passed inline with --mapping or
read from --mapping-file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateInputs(args); err != nil {
			return err
		}
		var raw []byte
		switch {
		case predictMapping != "" && predictMapFile != "":
			return fmt.Errorf("use either --mapping or --mapping-file, not both")
		case predictMapping != "":
			raw = []byte(predictMapping)
		case predictMapFile != "":
			b, err := os.ReadFile(predictMapFile)
			if err != nil {
				return fmt.Errorf("read mapping file: %w", err)
			}
			raw = b
		default:
			return fmt.Errorf("a mapping is required (--mapping or --mapping-file)")
		}
		m, err := schema.ParseMapping(raw, len(args))
		if err != nil {
			return err
		}
		return score(cmd, args, m, &predictFlags)
	},
}

// score runs the pipeline for a resolved mapping and writes the report.
func score(cmd *cobra.Command, paths []string, m schema.Mapping, f *runFlags) error {
	format, err := report.ParseFormat(f.outputFormat())
	if err != nil {
		return err
	}
	out := f.outputFile()
	// keep the extension in step with an explicitly chosen format
	if f.output == "" && utils.ReplaceExt(out, format.Ext()) != out {
		out = utils.ReplaceExt(out, format.Ext())
	}
	opt := f.pipelineOptions(cmd.Flags().Changed("seed"))

	res, err := pipeline.Run(cmd.Context(), paths, m, opt)
	if res != nil {
		for _, w := range res.Warnings {
			warnf(cmd.ErrOrStderr(), "%s", w)
		}
	}
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	if verbose {
		fmt.Fprintf(stdout, "Run: %s\n", res.RunID)
		fmt.Fprintf(stdout, "Customers: %d\n", res.Rows)
		fmt.Fprintf(stdout, "Features: %v\n", res.Features)
		fmt.Fprintf(stdout, "Labels: %s (%d positive)\n", res.LabelSource, res.Positives)
	}
	if err := report.SaveFile(out, format, report.NewSummary(res, paths, opt.RiskThreshold)); err != nil {
		return err
	}
	st := newStyles(stdout)
	fmt.Fprintln(stdout, st.ok.Render("✓ Analysis complete"))
	fmt.Fprintln(stdout, st.risk.Render(fmt.Sprintf("Found %d high-risk customers", len(res.RedLight))))
	fmt.Fprintln(stdout, st.info.Render("Results saved to: "+out))
	return nil
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predictMapping, "mapping", "", "mapping JSON as printed by 'map'")
	predictCmd.Flags().StringVar(&predictMapFile, "mapping-file", "", "path to a mapping JSON file")
	addRunFlags(predictCmd, &predictFlags)
}

func addRunFlags(c *cobra.Command, f *runFlags) {
	c.Flags().StringVarP(&f.output, "output", "o", "", "output file (default from config: "+defaultOutputFile+")")
	c.Flags().StringVarP(&f.format, "format", "f", "", "output format: csv|json|html|pdf")
	c.Flags().Int64Var(&f.seed, "seed", pipeline.DefaultSeed, "seed for synthetic label noise (overrides config)")
	c.Flags().Float64Var(&f.threshold, "threshold", 0, "RED LIGHT probability threshold (overrides config)")
	c.Flags().StringVar(&f.labelColumn, "label-column", "", "use this observed churn column instead of synthetic labels")
}
