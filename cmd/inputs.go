package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/churnguard-cli/internal/model"
	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

const defaultOutputFile = "churn_prediction_results.csv"

// validateInputs rejects paths that do not exist, are not CSV/TSV files, or are empty.
func validateInputs(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files provided")
	}
	for i, p := range paths {
		if err := table.CheckInput(p); err != nil {
			return fmt.Errorf("input file %d: %w", i, err)
		}
	}
	return nil
}

// promptFiles asks for input paths one per line until an empty line or EOF.
// Invalid paths are reported and skipped.
func promptFiles(in io.Reader, out io.Writer) ([]string, error) {
	sc := bufio.NewScanner(in)
	var paths []string
	for {
		if len(paths) == 0 {
			fmt.Fprint(out, "Enter the path to the first CSV file: ")
		} else {
			fmt.Fprintf(out, "Enter the path to CSV file #%d (or press Enter to finish): ", len(paths)+1)
		}
		if !sc.Scan() {
			break
		}
		p := strings.TrimSpace(sc.Text())
		if p == "" {
			if len(paths) == 0 {
				fmt.Fprintln(out, "✗ No files provided. Please provide at least one CSV file.")
				continue
			}
			break
		}
		if err := table.CheckInput(p); err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
			continue
		}
		paths = append(paths, p)
		fmt.Fprintf(out, "✓ Added: %s\n", p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read file paths: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	fmt.Fprintf(out, "✓ Collected %d file(s)\n", len(paths))
	return paths, nil
}

func tableOptions() table.Options {
	opt := table.DefaultOptions()
	if cfg != nil {
		opt.Delimiter = cfg.DelimiterRune()
	}
	return opt
}

// resolveMode picks the flag value when set, else the configured mode.
func resolveMode(flag string) (schema.ResolveMode, error) {
	s := flag
	if s == "" && cfg != nil {
		s = cfg.ResolveMode
	}
	if s == "" {
		return schema.ResolveExclusive, nil
	}
	return schema.ParseResolveMode(s)
}

// runFlags are the per-invocation overrides shared by predict and run.
type runFlags struct {
	output      string
	format      string
	seed        int64
	threshold   float64
	labelColumn string
	mode        string
}

func (f *runFlags) outputFile() string {
	if f.output != "" {
		return f.output
	}
	if cfg != nil && cfg.OutputFile != "" {
		return cfg.OutputFile
	}
	return defaultOutputFile
}

func (f *runFlags) outputFormat() string {
	if f.format != "" {
		return f.format
	}
	if cfg != nil && cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return "csv"
}

// pipelineOptions merges configuration and flags into pipeline settings.
func (f *runFlags) pipelineOptions(seedSet bool) pipeline.Options {
	opt := pipeline.DefaultOptions()
	opt.Table = tableOptions()
	opt.Logger = logger
	lr := model.NewLogisticRegression()
	if cfg != nil {
		if cfg.RiskThreshold > 0 {
			opt.RiskThreshold = cfg.RiskThreshold
		}
		opt.Seed = cfg.LabelSeed
		if cfg.LabelNoiseStd > 0 {
			opt.Labels.NoiseStd = cfg.LabelNoiseStd
		}
		if cfg.LabelThreshold != 0 {
			opt.Labels.Threshold = cfg.LabelThreshold
		}
		opt.LabelColumn = cfg.LabelColumn
		if cfg.ModelEpochs > 0 {
			lr.Epochs = cfg.ModelEpochs
		}
		if cfg.ModelLearningRate > 0 {
			lr.LearningRate = cfg.ModelLearningRate
		}
		lr.C = cfg.ModelL2
	}
	if seedSet {
		opt.Seed = f.seed
	}
	if f.threshold > 0 {
		opt.RiskThreshold = f.threshold
	}
	if f.labelColumn != "" {
		opt.LabelColumn = f.labelColumn
	}
	opt.Scorer = lr
	return opt
}
