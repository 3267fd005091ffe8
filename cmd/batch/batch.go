// Package batch handles batch processing of files
package batch

import (
	"fmt"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/report"
	"fjacquet/ekstre-csv/internal/validation"

	"github.com/spf13/cobra"
)

var (
	outputFormat string
	canonical    bool
	reportFormat string
	workers      int
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch process files from a directory",
	Long: `Batch process files from an input directory and output them to another directory.

Every CSV, XLS and XLSX file of the input directory is converted into its own
ledger file. Files are processed concurrently and a failing file does not stop
the others; a summary is printed at the end.

Example:
  ekstre-csv batch -i statements/ -o ledgers/`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVar(&outputFormat, "format", "", "Output format (csv, xlsx); defaults to output.format")
	Cmd.Flags().BoolVar(&canonical, "canonical", false, "Also write the canonical transaction tables")
	Cmd.Flags().StringVar(&reportFormat, "report", report.FormatText, "Summary report format (text, json, yaml)")
	Cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers; defaults to batch.workers")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	inputDir := root.SharedFlags.Input
	outputDir := root.SharedFlags.Output
	if inputDir == "" || outputDir == "" {
		return fmt.Errorf("input and output directories must be specified")
	}

	if err := validation.IsValidDirectory(inputDir); err != nil {
		return err
	}
	if err := validation.IsValidReportFormat(reportFormat); err != nil {
		return err
	}

	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	logger := c.GetLogger()
	logger.Info("Batch command called",
		logging.F(logging.FieldFile, inputDir),
		logging.F(logging.FieldOutputFile, outputDir))

	o := c.OutputOptions()
	if outputFormat != "" {
		if err := validation.IsValidOutputFormat(outputFormat); err != nil {
			return err
		}
		o.Format = outputFormat
	}
	o.Canonical = canonical

	processor := c.GetBatchProcessor()
	if workers > 0 {
		processor = processor.WithWorkers(workers)
	}

	summary, err := processor.ProcessDirectory(cmd.Context(), inputDir, outputDir, o)
	if err != nil {
		return fmt.Errorf("error during batch conversion: %w", err)
	}
	if err := common.WriteReport(cmd.OutOrStdout(), c, summary, reportFormat); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.Failed, summary.Total)
	}
	return nil
}
