// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/RawInspect/pkg/config"
	"github.com/ChrisMcGann/RawInspect/pkg/logger"
	"github.com/ChrisMcGann/RawInspect/pkg/metrics"
	"github.com/ChrisMcGann/RawInspect/pkg/report"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
	"github.com/ChrisMcGann/RawInspect/pkg/store/sqlite"
)

var (
	// Flags shared by the report commands
	configFile      string
	enableReports   []string
	disableReports  []string
	firstScan       int
	lastScan        int
	logLevel        string
	logFormat       string
	metricsTextfile string
)

var rootCmd = &cobra.Command{
	Use:   "rawinspect [file]",
	Short: "RawInspect - Mass spectrometry run inspection tool",
	Long: `RawInspect reads an acquisition run database and prints the configured
report sections:
- Scan ordering checks and scan information
- Spectrum, averaged spectrum, centroid and mass precision reports
- TIC, base peak, mass range and analog chromatograms
- Trailer and status log fields
- Inclusion/exclusion list reconstruction and precursor matching
- Sequence file creation

Only the scan analysis report is on by default; enable others in the config
file or with --enable.

Examples:
  # Scan analysis of one run
  rawinspect run.db

  # Chromatogram and inclusion list reports for scans 100-500
  rawinspect run.db --enable chromatogram,inclusionList --first 100 --last 500`,
	Version:      "1.0.0",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRoot,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(batchCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	flags.StringSliceVarP(&enableReports, "enable", "e", nil, "Reports to enable (comma-separated, or 'all')")
	flags.StringSliceVar(&disableReports, "disable", nil, "Reports to disable (comma-separated, or 'all')")
	flags.IntVar(&firstScan, "first", 0, "First scan to process (0 = first scan of the run)")
	flags.IntVar(&lastScan, "last", 0, "Last scan to process (0 = last scan of the run)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file at the end of the run")
}

// loadConfig reads the config file and applies the command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	for _, name := range disableReports {
		if err := cfg.Reports.Set(name, false); err != nil {
			return nil, err
		}
	}
	for _, name := range enableReports {
		if err := cfg.Reports.Set(name, true); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("first") {
		cfg.Range.First = firstScan
	}
	if cmd.Flags().Changed("last") {
		cfg.Range.Last = lastScan
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if metricsTextfile != "" {
		cfg.Metrics.Textfile = metricsTextfile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
}

// openRun opens a run database.
func openRun(path string) (store.Store, error) {
	s, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// fileExists prints a diagnostic and returns false when path is missing.
func fileExists(w io.Writer, path string) bool {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "The file doesn't exist in the specified location - %s\n", path)
		return false
	}
	return true
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No run file specified!")
		return nil
	}
	path := args[0]
	if !fileExists(cmd.ErrOrStderr(), path) {
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := setupLogging(cmd, cfg)
	m := metrics.New()

	runner := report.NewRunner(cfg, cmd.OutOrStdout(), logger.WithFile(log, path), m)
	runErr := runner.RunFile(path, openRun)

	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Error("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
	return runErr
}
