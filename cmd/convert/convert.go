// Package convert handles single statement conversion
package convert

import (
	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/pipeline"
	"fjacquet/ekstre-csv/internal/report"
	"fjacquet/ekstre-csv/internal/validation"

	"github.com/spf13/cobra"
)

var (
	outputFormat string
	canonical    bool
	noHistory    bool
	reportFormat string
)

// Cmd represents the convert command
var Cmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one bank statement into a ledger file",
	Long: `Convert one bank statement (CSV, XLS or XLSX) into the two-section ledger.

The bank is recognized from the file name or the content. Without --output
the ledger is written next to the input as <name>_ledger.<format>.

Example:
  ekstre-csv convert -i garanti_ekstre.xlsx -o ledger.csv
  ekstre-csv convert -i statement.csv --format xlsx --canonical`,
	RunE: convertFunc,
}

func init() {
	Cmd.Flags().StringVar(&outputFormat, "format", "", "Output format (csv, xlsx); defaults to output.format")
	Cmd.Flags().BoolVar(&canonical, "canonical", false, "Also write the canonical transaction table")
	Cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the statement in history")
	Cmd.Flags().StringVar(&reportFormat, "report", report.FormatText, "Diagnostics report format (text, json, yaml)")
}

func convertFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}

	if err := validation.IsValidReportFormat(reportFormat); err != nil {
		return err
	}
	o := c.OutputOptions()
	if outputFormat != "" {
		if err := validation.IsValidOutputFormat(outputFormat); err != nil {
			return err
		}
		o.Format = outputFormat
	}
	o.Canonical = canonical

	res, out, err := common.ProcessFile(cmd.Context(), c, root.SharedFlags.Input, root.SharedFlags.Output,
		common.ProcessOptions{Output: o, NoHistory: noHistory})
	if err != nil {
		return err
	}

	cmd.Printf("Ledger written to %s\n", out)
	if o.Canonical {
		cmd.Printf("Canonical table written to %s\n", pipeline.CanonicalPath(out))
	}
	return common.WriteReport(cmd.OutOrStdout(), c, res.Diagnostics, reportFormat)
}
