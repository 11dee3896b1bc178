package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/RawInspect/pkg/reader/scantext"
	"github.com/ChrisMcGann/RawInspect/pkg/store/sqlite"
)

var (
	// Flags for import command
	importInput      string
	importOutput     string
	importMethods    []string
	importInstrument string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build a run database from a scan text dump",
	Long: `Import reads a plain-text scan dump and writes a run database that the
report commands can open.

Examples:
  # Import a dump
  rawinspect import --in run.txt --out run.db

  # Import with instrument method texts (used by the inclusion list report)
  rawinspect import --in run.txt --out run.db --method method.txt`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "in", "i", "", "Input scan dump (required)")
	importCmd.Flags().StringVarP(&importOutput, "out", "o", "", "Output run database (required)")
	importCmd.Flags().StringSliceVarP(&importMethods, "method", "m", nil, "Instrument method text files")
	importCmd.Flags().StringVar(&importInstrument, "instrument", "", "Instrument name stored in the header")

	importCmd.MarkFlagRequired("in")
	importCmd.MarkFlagRequired("out")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := setupLogging(cmd, cfg)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(importInput); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", importInput)
	}
	if _, err := os.Stat(importOutput); err == nil {
		return fmt.Errorf("output file already exists: %s", importOutput)
	}

	inFile, err := os.Open(importInput)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	run, err := scantext.ReadRun(inFile)
	if err != nil {
		return err
	}
	run.Instrument = importInstrument

	for _, path := range importMethods {
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read method file: %w", err)
		}
		run.Methods = append(run.Methods, string(text))
	}

	corrupt := 0
	for _, sc := range run.Scans {
		if sc.Corrupt {
			corrupt++
			log.Warn("scan has unreadable peak lines", "scan", sc.Number)
		}
	}

	writer, err := sqlite.NewWriter(importOutput)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteRun(run); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Fprintf(out, "Imported %d scans from %s\n", writer.Scans(), importInput)
	if corrupt > 0 {
		fmt.Fprintf(out, "Corrupt: %d scans (unreadable peak lines)\n", corrupt)
	}
	fmt.Fprintf(out, "Trailer fields: %d\n", len(run.TrailerFields))
	fmt.Fprintf(out, "Instrument methods: %d\n", len(run.Methods))
	fmt.Fprintf(out, "Output: %s\n", importOutput)
	return nil
}
