// Package classifier decides which registered bank layout produced a
// statement table, first from the file name and then from the table
// content, and locates the header row of that layout.
//
// Everything here is a pure function of its inputs. Results carry their own
// evidence so callers can log or display why a format was chosen.
package classifier

import (
	"fmt"

	"fjacquet/ekstre-csv/internal/models"
)

// UnknownFormat is the format id reported when no layout matched.
const UnknownFormat = "unknown"

// Method names the stage that produced a decision.
type Method string

const (
	MethodFilename    Method = "filename"
	MethodContent     Method = "content"
	MethodHeaderSweep Method = "header_sweep"
	MethodNone        Method = "none"
)

// ClassificationResult is the content score of one format. Values are
// immutable: add and withHeader return modified copies.
type ClassificationResult struct {
	FormatID   string           `json:"format_id"`
	TotalScore float64          `json:"total_score"`
	Evidence   []string         `json:"evidence"`
	HeaderRow  int              `json:"header_row"`
	Table      *models.RawTable `json:"-"`
}

func newResult(formatID string) ClassificationResult {
	return ClassificationResult{FormatID: formatID, HeaderRow: NotFound}
}

// add returns r with points added and reason appended. Negative points are
// ignored so a score never decreases.
func (r ClassificationResult) add(points float64, reason string) ClassificationResult {
	if points < 0 {
		points = 0
	}
	evidence := make([]string, len(r.Evidence), len(r.Evidence)+1)
	copy(evidence, r.Evidence)
	r.Evidence = append(evidence, fmt.Sprintf("%s (+%.2f)", reason, points))
	r.TotalScore += points
	return r
}

func (r ClassificationResult) withHeader(row int, table models.RawTable) ClassificationResult {
	r.HeaderRow = row
	r.Table = &table
	return r
}

// target is the reheadered table when the header row is known, else raw.
func (r ClassificationResult) target(raw models.RawTable) models.RawTable {
	if r.Table != nil {
		return *r.Table
	}
	return raw
}

// Decision is the outcome of one classification pass.
type Decision struct {
	FormatID  string                   `json:"format_id"`
	Format    *models.FormatDescriptor `json:"-"`
	Method    Method                   `json:"method"`
	Score     float64                  `json:"score"`
	HeaderRow int                      `json:"header_row"`
	Evidence  []string                 `json:"evidence"`

	// Table is the reheadered table when HeaderRow is set, else the input.
	Table models.RawTable `json:"-"`

	// Results holds the per-format content scores in registry order. It is
	// empty when the file name decided.
	Results []ClassificationResult `json:"results,omitempty"`
}

// Recognized reports whether a format was selected.
func (d Decision) Recognized() bool {
	return d.Format != nil
}

// Classifier runs the filename and content stages with one weight table.
type Classifier struct {
	weights Weights
}

// New creates a Classifier.
func New(w Weights) *Classifier {
	return &Classifier{weights: w.normalized()}
}

// Weights returns the weight table in use.
func (c *Classifier) Weights() Weights {
	return c.weights
}

// Classify tries the file name first and falls back to the content stages.
// When the file name decides, the header row is still located with the
// chosen format's tokens.
func (c *Classifier) Classify(table models.RawTable, filename string, formats []models.FormatDescriptor) Decision {
	if filename != "" {
		if match, ok := ClassifyFilename(filename, formats, c.weights); ok {
			f := match.Format
			d := Decision{
				FormatID:  f.ID,
				Format:    &f,
				Method:    MethodFilename,
				Score:     match.Score,
				HeaderRow: NotFound,
				Evidence:  append([]string(nil), match.Evidence...),
				Table:     table,
			}
			if row := LocateHeader(table, f.HeaderTokens(), c.weights.HeaderScanRows); row != NotFound {
				d.HeaderRow = row
				d.Table = table.Reheader(row)
				d.Evidence = append(d.Evidence, fmt.Sprintf("header row found at row %d", row))
			}
			return d
		}
	}
	return c.ClassifyContent(table, formats)
}

// ScoreContent folds every content signal for each format, in registry
// order.
func (c *Classifier) ScoreContent(table models.RawTable, formats []models.FormatDescriptor) []ClassificationResult {
	results := make([]ClassificationResult, 0, len(formats))
	for _, f := range formats {
		in := signalInput{table: table, format: f, weights: c.weights}
		r := newResult(f.ID)
		for _, signal := range contentSignals {
			r = signal(in, r)
		}
		results = append(results, r)
	}
	return results
}

// ClassifyContent selects the best content score at or above the floor.
// Failing that, the first format whose header row can be located wins.
func (c *Classifier) ClassifyContent(table models.RawTable, formats []models.FormatDescriptor) Decision {
	none := Decision{FormatID: UnknownFormat, Method: MethodNone, HeaderRow: NotFound, Table: table}
	if table.Len() == 0 || table.Width() == 0 || len(formats) == 0 {
		none.Evidence = []string{"nothing to classify"}
		return none
	}

	results := c.ScoreContent(table, formats)
	best := -1
	bestScore := 0.0
	for i, r := range results {
		if r.TotalScore > bestScore {
			best = i
			bestScore = r.TotalScore
		}
	}

	if best >= 0 && bestScore >= c.weights.ContentFloor {
		r := results[best]
		f := formats[best]
		d := Decision{
			FormatID:  f.ID,
			Format:    &f,
			Method:    MethodContent,
			Score:     r.TotalScore,
			HeaderRow: r.HeaderRow,
			Evidence:  append([]string(nil), r.Evidence...),
			Table:     r.target(table),
			Results:   results,
		}
		return d
	}

	for _, f := range formats {
		row := LocateHeader(table, f.HeaderTokens(), c.weights.HeaderScanRows)
		if row == NotFound {
			continue
		}
		f := f
		return Decision{
			FormatID:  f.ID,
			Format:    &f,
			Method:    MethodHeaderSweep,
			HeaderRow: row,
			Evidence:  []string{fmt.Sprintf("no score reached %.2f; header row of %s found at row %d", c.weights.ContentFloor, f.ID, row)},
			Table:     table.Reheader(row),
			Results:   results,
		}
	}

	none.Results = results
	none.Evidence = []string{fmt.Sprintf("best content score %.2f is below %.2f", bestScore, c.weights.ContentFloor)}
	return none
}
