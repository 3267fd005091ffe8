package classifier

import (
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/textutils"
)

// NotFound is the header row index reported when no row matches.
const NotFound = -1

// LocateHeader returns the index of the first of the leading maxRows rows
// in which every token is a substring of at least one lower-cased cell, or
// NotFound. Tokens are compared lower-cased. An empty token list never
// matches.
//
// Lower-casing keeps dotted and dotless I apart, so "TARİH" and "Tarih"
// differ. Filename and banner matching fold them with FoldLower instead.
func LocateHeader(table models.RawTable, tokens []string, maxRows int) int {
	lowered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			lowered = append(lowered, textutils.Lower(tok))
		}
	}
	if len(lowered) == 0 {
		return NotFound
	}

	limit := table.Len()
	if maxRows < limit {
		limit = maxRows
	}

	for i := 0; i < limit; i++ {
		cells := make([]string, 0, table.Width())
		for _, c := range table.Rows[i] {
			if !c.IsEmpty() {
				cells = append(cells, textutils.Lower(c.String()))
			}
		}
		if rowHasAll(cells, lowered) {
			return i
		}
	}
	return NotFound
}

func rowHasAll(cells, tokens []string) bool {
	for _, tok := range tokens {
		found := false
		for _, cell := range cells {
			if strings.Contains(cell, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
