package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/KaramelBytes/churnguard-cli/internal/config"
)

// Version is overridden at build time with -ldflags "-X .../cmd.Version=...".
var Version = "1.0.0"

var (
	// Global flags
	cfgFile string
	debug   bool
	verbose bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger is built per invocation in PersistentPreRunE
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "churnguard",
	Short: "ChurnGuard CLI: find customers at risk of churning across CSV exports",
	Long: `ChurnGuard reads one or more CSV exports, works out which column holds the
customer id, logins, support tickets and last activity, joins them per
customer and scores every customer with a logistic model. Customers whose
churn probability is above the risk threshold are reported as RED LIGHT.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfig(cmd.ErrOrStderr())
		l, err := newLogger(debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.churnguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable structured debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show the column mapping and run details")
}

// newLogger writes console-encoded logs to stderr. Warnings reach the user
// through warnf, so the logger stays at error level unless debugging.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	config.DisableStacktrace = true
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func loadConfig(stderr io.Writer) {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ Warning: "+format+"\n", args...)
}
