// Package tableio reads statement files into raw tables and writes ledger
// and canonical tables back out as CSV or Excel.
package tableio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"
)

// Kind is a supported input container.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindXLS  Kind = "xls"
)

// DefaultEncoding is used for CSV input that is not valid UTF-8.
const DefaultEncoding = "windows-1254"

var (
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// Options tunes the reader.
type Options struct {
	// Encoding decodes CSV input that is not valid UTF-8.
	Encoding string
	// Delimiter forces the CSV delimiter; zero sniffs it.
	Delimiter rune
}

// Reader turns statement files into raw tables.
type Reader struct {
	opts Options
}

// NewReader creates a Reader. An empty encoding means DefaultEncoding.
func NewReader(opts Options) *Reader {
	if opts.Encoding == "" {
		opts.Encoding = DefaultEncoding
	}
	return &Reader{opts: opts}
}

// Read reads r with the default options.
func Read(name string, r io.Reader) (models.RawTable, error) {
	return NewReader(Options{}).Read(name, r)
}

// Supported reports whether name has an extension the reader accepts.
func Supported(name string) bool {
	_, ok := kindFromExtension(name)
	return ok
}

func kindFromExtension(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return KindCSV, true
	case ".xlsx", ".xlsm":
		return KindXLSX, true
	case ".xls":
		return KindXLS, true
	}
	return "", false
}

// Detect picks the container kind. Magic bytes win over the extension so a
// workbook saved with a .csv name still opens.
func Detect(name string, data []byte) (Kind, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return KindXLSX, nil
	case bytes.HasPrefix(data, ole2Magic):
		return KindXLS, nil
	}
	k, ok := kindFromExtension(name)
	switch {
	case !ok:
		return "", &parsererror.InvalidFormatError{
			FilePath:       name,
			ExpectedFormat: "csv, xlsx or xls",
			Msg:            "unsupported file type",
		}
	case k != KindCSV:
		return "", &parsererror.InvalidFormatError{
			FilePath:             name,
			ExpectedFormat:       string(k),
			ActualContentSnippet: snippet(data),
			Msg:                  "content does not match the file extension",
		}
	}
	return KindCSV, nil
}

// Read reads the whole of r and dispatches on its kind.
func (rd *Reader) Read(name string, r io.Reader) (models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error reading %s: %w", name, err)
	}
	kind, err := Detect(name, data)
	if err != nil {
		return models.RawTable{}, err
	}

	var rows [][]models.Cell
	switch kind {
	case KindXLSX:
		rows, err = readXLSX(data)
	case KindXLS:
		rows, err = readXLS(data)
	default:
		rows, err = rd.readCSV(data)
	}
	if err != nil {
		return models.RawTable{}, &parsererror.DataExtractionError{FilePath: name, Reader: string(kind), Err: err}
	}
	return toTable(rows), nil
}

// ReadFile opens path and reads it.
func (rd *Reader) ReadFile(path string) (models.RawTable, error) {
	f, err := os.Open(path) // #nosec G304 -- user supplied statement path
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return rd.Read(filepath.Base(path), f)
}

// toTable promotes the first row to column labels.
func toTable(rows [][]models.Cell) models.RawTable {
	if len(rows) == 0 {
		return models.NewRawTable(nil, nil)
	}
	labels := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		labels[i] = strings.TrimSpace(c.String())
	}
	return models.NewRawTable(labels, rows[1:])
}

func snippet(data []byte) string {
	const max = 16
	if len(data) > max {
		data = data[:max]
	}
	return strings.ToValidUTF8(string(data), "?")
}
