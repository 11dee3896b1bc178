package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/RawInspect/pkg/config"
	"github.com/ChrisMcGann/RawInspect/pkg/logger"
	"github.com/ChrisMcGann/RawInspect/pkg/metrics"
	"github.com/ChrisMcGann/RawInspect/pkg/report"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch file...",
	Short: "Run the configured reports over several run files",
	Long: `Batch runs the configured reports over every file concurrently. Each file
gets its own store handle; output is printed in argument order. A file that
fails the open checks is reported and the others still run.

Examples:
  rawinspect batch a.db b.db c.db --workers 2 --enable fullScanRead`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Files processed at once (0 = config value)")
}

// checkBatchOutputs rejects settings that would have several runs write the
// same output file.
func checkBatchOutputs(cfg *config.Config, files int) error {
	if files > 1 && cfg.Reports.SequenceFile && cfg.Sequence.Output != "" {
		return fmt.Errorf("sequence.output %q names a single file; leave it empty to write <run>.sequence.yaml per run", cfg.Sequence.Output)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if batchWorkers > 0 {
		cfg.Batch.Workers = batchWorkers
	}
	if err := checkBatchOutputs(cfg, len(args)); err != nil {
		return err
	}
	log := setupLogging(cmd, cfg)
	m := metrics.New()

	outputs := make([]bytes.Buffer, len(args))
	failed := make([]error, len(args))

	var g errgroup.Group
	g.SetLimit(cfg.Batch.Workers)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			if !fileExists(&outputs[i], path) {
				return nil
			}
			runner := report.NewRunner(cfg, &outputs[i], logger.WithFile(log, path), m)
			failed[i] = runner.RunFile(path, openRun)
			return nil
		})
	}
	g.Wait()

	out := cmd.OutOrStdout()
	fatal := 0
	for i := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		out.Write(outputs[i].Bytes())
		if failed[i] != nil {
			fatal++
			fmt.Fprintf(out, "Error: %v\n", failed[i])
		}
	}

	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Error("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
	if fatal > 0 {
		return fmt.Errorf("%d of %d files could not be processed", fatal, len(args))
	}
	return nil
}
