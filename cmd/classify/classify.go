// Package classify prints how a statement file would be recognized
package classify

import (
	"fmt"
	"os"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/report"
	"fjacquet/ekstre-csv/internal/validation"

	"github.com/spf13/cobra"
)

var reportFormat string

// Cmd represents the classify command
var Cmd = &cobra.Command{
	Use:   "classify",
	Short: "Show which bank format a statement file is recognized as",
	Long: `Show the classification decision for one statement file: the chosen format,
the method that decided it, the header row and the evidence collected, with
the content score of every candidate format.

Example:
  ekstre-csv classify -i hesap_hareketleri.xlsx --report json`,
	RunE: classifyFunc,
}

func init() {
	Cmd.Flags().StringVar(&reportFormat, "report", report.FormatText, "Report format (text, json, yaml)")
}

func classifyFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	input := root.SharedFlags.Input
	if err := validation.IsValidInputFile(input); err != nil {
		return err
	}
	if err := validation.IsValidReportFormat(reportFormat); err != nil {
		return err
	}

	// #nosec G304 -- input path is chosen by the user
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	conv := c.GetConverter()
	table, err := conv.Read(input, f)
	if err != nil {
		return err
	}
	d, err := conv.Classify(table, input)
	if err != nil {
		return err
	}
	return common.WriteReport(cmd.OutOrStdout(), c, d, reportFormat)
}
