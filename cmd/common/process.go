// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"
	"fjacquet/ekstre-csv/internal/validation"
)

// ErrNoContainer is returned when a command runs before the root pre-run
// built the application container.
var ErrNoContainer = errors.New("container not initialized")

// ProcessOptions tunes ProcessFile.
type ProcessOptions struct {
	Output pipeline.OutputOptions
	// NoHistory converts without recording the statement.
	NoHistory bool
}

// ProcessFile converts inputFile and writes its ledger to outputFile. An
// empty outputFile writes next to the input.
func ProcessFile(ctx context.Context, c *container.Container, inputFile, outputFile string, opts ProcessOptions) (*pipeline.Result, string, error) {
	if c == nil {
		return nil, "", ErrNoContainer
	}
	if err := validation.IsValidInputFile(inputFile); err != nil {
		return nil, "", err
	}
	log := c.GetLogger()
	conv := c.GetConverter()

	var (
		res *pipeline.Result
		err error
	)
	if opts.NoHistory {
		res, err = convertWithoutHistory(conv, inputFile)
	} else {
		res, err = conv.ConvertFile(ctx, inputFile)
	}
	if err != nil {
		return nil, "", fmt.Errorf("error converting %s: %w", inputFile, err)
	}

	if outputFile == "" {
		outputFile = pipeline.LedgerPath(filepath.Dir(inputFile), inputFile, opts.Output)
	}
	if err := pipeline.SaveResult(outputFile, res, opts.Output); err != nil {
		return res, "", err
	}
	if err := conv.RecordExport(ctx, res.StatementID, opts.Output.Format, map[string]string{"output": outputFile}); err != nil {
		log.WithError(err).Warn("Failed to record export", logging.F(logging.FieldFile, inputFile))
	}

	log.Info("Conversion completed successfully",
		logging.F(logging.FieldFile, inputFile),
		logging.F(logging.FieldOutputFile, outputFile),
		logging.F(logging.FieldFormat, res.Diagnostics.FormatID),
		logging.F(logging.FieldRows, res.Diagnostics.Rows))
	return res, outputFile, nil
}

func convertWithoutHistory(conv *pipeline.Converter, path string) (*pipeline.Result, error) {
	// #nosec G304 -- input path is chosen by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	table, err := conv.Read(path, f)
	if err != nil {
		return nil, err
	}
	return conv.Convert(table, filepath.Base(path))
}

// WriteReport renders report in format to w with the container's report
// generator.
func WriteReport(w io.Writer, c *container.Container, report interface{}, format string) error {
	if c == nil {
		return ErrNoContainer
	}
	out, err := c.GetReportGenerator().GenerateReport(report, format)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
