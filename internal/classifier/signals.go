package classifier

import (
	"fmt"
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/textutils"
)

// signalInput is what every content signal sees for one format.
type signalInput struct {
	table   models.RawTable
	format  models.FormatDescriptor
	weights Weights
}

// Signal scores one aspect of a table for one format and returns the
// updated result. Signals never lower a score.
type Signal func(in signalInput, r ClassificationResult) ClassificationResult

// contentSignals run in this order; the fingerprint and date signals read
// the reheadered table produced by headerRowSignal.
var contentSignals = []Signal{
	bannerSignal,
	headerTokenSignal,
	headerRowSignal,
	fingerprintSignal,
	dateFormatSignal,
}

// bannerSignal looks for the bank name in the leading rows, where most
// exports print a title.
func bannerSignal(in signalInput, r ClassificationResult) ClassificationResult {
	name := textutils.FoldUpper(strings.TrimSpace(in.format.Name))
	if name == "" {
		return r
	}
	words := textutils.Words(name, in.weights.MinWordLength)

	limit := in.table.Len()
	if in.weights.BannerRows < limit {
		limit = in.weights.BannerRows
	}
	for i := 0; i < limit; i++ {
		row := textutils.FoldUpper(in.table.RowText(i))
		if row == "" {
			continue
		}
		if strings.Contains(row, name) {
			r = r.add(in.weights.BannerFullName, fmt.Sprintf("row %d contains bank name %q", i, name))
		}
		for _, w := range words {
			if textutils.ContainsWord(row, w) {
				r = r.add(in.weights.BannerWord, fmt.Sprintf("row %d contains name word %q", i, w))
			}
		}
	}
	return r
}

// headerTokenSignal compares the column labels with the header tokens.
func headerTokenSignal(in signalInput, r ClassificationResult) ClassificationResult {
	tokens := in.format.HeaderTokens()
	if len(tokens) == 0 {
		return r
	}
	// Same casing rule as LocateHeader: dotted and dotless I stay distinct.
	labels := make([]string, len(in.table.Columns))
	for i, c := range in.table.Columns {
		labels[i] = textutils.Lower(c)
	}

	exact, partial := 0, 0
	for _, tok := range tokens {
		for _, l := range labels {
			if l == tok {
				exact++
				break
			}
		}
		for _, l := range labels {
			if strings.Contains(l, tok) {
				partial++
				break
			}
		}
	}

	if exact > 0 {
		r = r.add(float64(exact)*in.weights.HeaderExact, fmt.Sprintf("%d column labels match header tokens exactly", exact))
	}
	if partial > 0 {
		r = r.add(float64(partial)*in.weights.HeaderPartial, fmt.Sprintf("%d column labels contain header tokens", partial))
	}
	return r
}

// headerRowSignal runs the header locator and keeps the reheadered table.
func headerRowSignal(in signalInput, r ClassificationResult) ClassificationResult {
	row := LocateHeader(in.table, in.format.HeaderTokens(), in.weights.HeaderScanRows)
	if row == NotFound {
		return r
	}
	r = r.withHeader(row, in.table.Reheader(row))
	return r.add(in.weights.HeaderRowFound, fmt.Sprintf("header row found at row %d", row))
}

// descriptionColumns returns the columns whose label looks like a
// description, or every text column when none does.
func descriptionColumns(t models.RawTable) []int {
	var cols []int
	for i, c := range t.Columns {
		l := textutils.Lower(c)
		if strings.Contains(l, "açıklama") || strings.Contains(l, "aciklama") || strings.Contains(l, "description") {
			cols = append(cols, i)
		}
	}
	if len(cols) > 0 {
		return cols
	}
	for i := range t.Columns {
		if t.IsTextColumn(i) {
			cols = append(cols, i)
		}
	}
	return cols
}

// fingerprintSignal counts bank-specific keywords in description cells.
// Distinct keywords weigh far more than repeats.
func fingerprintSignal(in signalInput, r ClassificationResult) ClassificationResult {
	keywords := in.format.Keywords()
	if len(keywords) == 0 {
		return r
	}
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = textutils.FoldUpper(strings.TrimSpace(k)); k != "" {
			folded = append(folded, k)
		}
	}

	t := r.target(in.table)
	total := 0
	seen := make(map[string]bool)
	var matched []string
	for _, col := range descriptionColumns(t) {
		for row := 0; row < t.Len(); row++ {
			c := t.Cell(row, col)
			if c.IsEmpty() {
				continue
			}
			val := textutils.FoldUpper(c.String())
			for _, k := range folded {
				if strings.Contains(val, k) {
					total++
					if !seen[k] {
						seen[k] = true
						matched = append(matched, k)
					}
				}
			}
		}
	}
	if total == 0 {
		return r
	}

	unique := len(matched)
	repeat := float64(total-unique) * in.weights.FingerprintRepeat
	if repeat > in.weights.FingerprintRepeatMax {
		repeat = in.weights.FingerprintRepeatMax
	}
	points := float64(unique)*in.weights.FingerprintUnique + repeat
	return r.add(points, fmt.Sprintf("fingerprints %s matched %d times", strings.Join(matched, ", "), total))
}

// dateColumns returns the columns whose label looks like a date.
func dateColumns(t models.RawTable) []int {
	var cols []int
	for i, c := range t.Columns {
		l := textutils.Lower(c)
		if strings.Contains(l, "tarih") || strings.Contains(l, "date") || strings.Contains(l, "trh") {
			cols = append(cols, i)
		}
	}
	return cols
}

// dateFormatSignal checks that sampled dates use the bank's separators.
func dateFormatSignal(in signalInput, r ClassificationResult) ClassificationResult {
	if len(in.format.DateSeparators) == 0 {
		return r
	}
	t := r.target(in.table)
	cols := dateColumns(t)
	if len(cols) == 0 {
		return r
	}

	samples := t.Len()
	if in.weights.DateSamples < samples {
		samples = in.weights.DateSamples
	}

	matches := 0
	for _, col := range cols {
		for row := 0; row < samples; row++ {
			c := t.Cell(row, col)
			if c.IsEmpty() {
				continue
			}
			val := c.String()
			for _, sep := range in.format.DateSeparators {
				if sep != "" && strings.Contains(val, sep) {
					matches++
					break
				}
			}
		}
	}
	if matches == 0 {
		return r
	}

	points := float64(matches) * in.weights.DateMatch
	if points > in.weights.DateMatchMax {
		points = in.weights.DateMatchMax
	}
	return r.add(points, fmt.Sprintf("%d date samples use the expected separators", matches))
}
