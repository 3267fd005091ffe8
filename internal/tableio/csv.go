package tableio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"fjacquet/ekstre-csv/internal/models"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiters are the candidates SniffDelimiter chooses from, in tie-break
// order.
var Delimiters = []rune{';', ',', '\t', '|'}

const sniffLines = 10

var encodings = map[string]encoding.Encoding{
	"windows-1254": charmap.Windows1254,
	"cp1254":       charmap.Windows1254,
	"iso-8859-9":   charmap.ISO8859_9,
	"latin5":       charmap.ISO8859_9,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
}

// LookupEncoding returns the single-byte encoding registered under name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	e, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return e, nil
}

// DecodeText returns data as UTF-8 without a byte order mark. Input that is
// not valid UTF-8 is decoded with the named fallback encoding.
func DecodeText(data []byte, fallback string) ([]byte, error) {
	if utf8.Valid(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		if err != nil {
			return nil, fmt.Errorf("error stripping byte order mark: %w", err)
		}
		return out, nil
	}
	enc, err := LookupEncoding(fallback)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", fallback, err)
	}
	return out, nil
}

// SniffDelimiter picks the candidate that splits the most leading lines
// into the same number of fields. Quoted sections are ignored.
func SniffDelimiter(text []byte) rune {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < sniffLines {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	best, bestAgree, bestCount := Delimiters[0], 0, 0
	for _, d := range Delimiters {
		freq := map[int]int{}
		for _, l := range lines {
			if n := countUnquoted(l, d); n > 0 {
				freq[n]++
			}
		}
		agree, count := 0, 0
		for n, f := range freq {
			if f > agree || (f == agree && n > count) {
				agree, count = f, n
			}
		}
		if agree > bestAgree || (agree == bestAgree && count > bestCount) {
			best, bestAgree, bestCount = d, agree, count
		}
	}
	return best
}

func countUnquoted(line string, d rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

func (rd *Reader) readCSV(data []byte) ([][]models.Cell, error) {
	text, err := DecodeText(data, rd.opts.Encoding)
	if err != nil {
		return nil, err
	}
	delim := rd.opts.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(text)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing csv: %w", err)
	}
	rows := make([][]models.Cell, len(records))
	for i, rec := range records {
		row := make([]models.Cell, len(rec))
		for j, v := range rec {
			row[j] = models.InferCell(v)
		}
		rows[i] = row
	}
	return rows, nil
}
