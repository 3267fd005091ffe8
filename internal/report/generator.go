// Package report renders batch summaries and conversion diagnostics for
// people and for other tools.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"fjacquet/ekstre-csv/internal/classifier"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"

	"gopkg.in/yaml.v3"
)

// Supported report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportGenerator renders reports in text, JSON or YAML.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	return &ReportGenerator{logger: logging.OrDiscard(logger)}
}

// GenerateReport renders a *pipeline.BatchSummary, pipeline.Diagnostics or
// classifier.Decision.
func (g *ReportGenerator) GenerateReport(report interface{}, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return g.generateJSONReport(report)
	case FormatYAML:
		return g.generateYAMLReport(report)
	case FormatText, "":
		return g.generateTextReport(report)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *ReportGenerator) generateJSONReport(report interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(out, '\n'), nil
}

func (g *ReportGenerator) generateYAMLReport(report interface{}) ([]byte, error) {
	out, err := yaml.Marshal(report)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return out, nil
}

func (g *ReportGenerator) generateTextReport(report interface{}) ([]byte, error) {
	var buf bytes.Buffer
	switch r := report.(type) {
	case *pipeline.BatchSummary:
		writeBatch(&buf, r)
	case pipeline.BatchSummary:
		writeBatch(&buf, &r)
	case pipeline.Diagnostics:
		writeDiagnostics(&buf, r)
	case *pipeline.Diagnostics:
		writeDiagnostics(&buf, *r)
	case classifier.Decision:
		writeDecision(&buf, r)
	default:
		return nil, fmt.Errorf("no text layout for %T", report)
	}
	return buf.Bytes(), nil
}

func writeBatch(buf *bytes.Buffer, s *pipeline.BatchSummary) {
	fmt.Fprintf(buf, "Processed %d file(s) in %s: %d succeeded, %d failed, %d unrecognized\n",
		s.Total, s.Duration.Round(1e6), s.Succeeded, s.Failed, s.Unrecognized)
	if len(s.Files) == 0 {
		return
	}
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tFORMAT\tROWS\tRESULT")
	for _, f := range s.Files {
		result := f.Output
		if f.Error != "" {
			result = "ERROR: " + f.Error
		}
		format := f.Format
		if format == "" {
			format = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Path, format, f.Rows, result)
	}
	_ = tw.Flush()
}

func writeDiagnostics(buf *bytes.Buffer, d pipeline.Diagnostics) {
	fmt.Fprintf(buf, "Format:     %s\n", d.FormatID)
	fmt.Fprintf(buf, "Method:     %s\n", d.Method)
	fmt.Fprintf(buf, "Score:      %.2f\n", d.Score)
	if d.HeaderRow >= 0 {
		fmt.Fprintf(buf, "Header row: %d\n", d.HeaderRow)
	} else {
		fmt.Fprintln(buf, "Header row: none")
	}
	if d.Route != "" {
		fmt.Fprintf(buf, "Route:      %s\n", d.Route)
		fmt.Fprintf(buf, "Rows:       %d (skipped %d, numeric failures %d, date failures %d)\n",
			d.Rows, d.SkippedRows, d.NumericFailures, d.DateFailures)
	}
	if len(d.Patched) > 0 {
		fmt.Fprintf(buf, "Positional: %s\n", strings.Join(d.Patched, ", "))
	}
	if len(d.Evidence) > 0 {
		fmt.Fprintln(buf, "Evidence:")
		for _, e := range d.Evidence {
			fmt.Fprintf(buf, "  - %s\n", e)
		}
	}
}

func writeDecision(buf *bytes.Buffer, d classifier.Decision) {
	writeDiagnostics(buf, pipeline.Diagnostics{
		FormatID:  d.FormatID,
		Method:    d.Method,
		Score:     d.Score,
		HeaderRow: d.HeaderRow,
		Evidence:  d.Evidence,
	})
	if len(d.Results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tSCORE\tHEADER ROW")
	for _, r := range d.Results {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", r.FormatID, r.TotalScore, r.HeaderRow)
	}
	_ = tw.Flush()
}
