// Package validation checks user-supplied paths and option values before
// any work starts.
package validation

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/ekstre-csv/internal/tableio"
)

// Output and report formats accepted on the command line.
var (
	OutputFormats = []string{"csv", "xlsx"}
	ReportFormats = []string{"text", "json", "yaml"}
)

// IsValidInputFile checks that path is a readable statement file with a
// supported extension.
func IsValidInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("input file must be specified")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}
	if !tableio.Supported(path) {
		return fmt.Errorf("unsupported statement file: %s. Supported extensions are .csv, .txt, .xls, .xlsx, .xlsm", path)
	}
	return nil
}

// IsValidDirectory checks that path exists and is a directory.
func IsValidDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}

// IsValidOutputFormat checks if the given ledger format is supported.
func IsValidOutputFormat(format string) error {
	return oneOf("output format", format, OutputFormats)
}

// IsValidReportFormat checks if the given report format is supported.
func IsValidReportFormat(format string) error {
	return oneOf("report format", format, ReportFormats)
}

func oneOf(kind, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %s. Supported formats are '%s'", kind, value, strings.Join(allowed, "', '"))
}

// IsValidFilePermissions checks if the given file mode is valid for sensitive files.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 { // Check if 'others' have any permissions
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0640", mode.String())
	}
	return nil
}
