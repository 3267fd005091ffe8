package classifier

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/registry"
	"fjacquet/ekstre-csv/internal/textutils"
)

// FilenameMatch is the best filename score for one format.
type FilenameMatch struct {
	Format   models.FormatDescriptor
	Score    float64
	Evidence []string
}

// stem lower-cases the base name and drops its extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return textutils.FoldLower(base)
}

// ScoreFilename scores one format against a file name.
func ScoreFilename(filename string, f models.FormatDescriptor, w Weights) (float64, []string) {
	w = w.normalized()
	name := stem(filename)
	if name == "" || name == "." {
		return 0, nil
	}

	var score float64
	var evidence []string
	add := func(points float64, format string, args ...interface{}) {
		score += points
		evidence = append(evidence, fmt.Sprintf(format+" (+%.2f)", append(args, points)...))
	}

	bankName := textutils.FoldLower(f.Name)
	bankID := textutils.FoldLower(f.ID)

	if bankName != "" && strings.Contains(name, bankName) {
		add(w.FilenameFullName, "file name contains format name %q", bankName)
	}
	if bankID != "" && strings.Contains(name, bankID) {
		add(w.FilenameID, "file name contains format id %q", bankID)
	}

	for _, alias := range f.Aliases {
		alias = textutils.FoldLower(alias)
		if alias == "" {
			continue
		}
		// Every matching alias counts.
		switch {
		case textutils.ContainsToken(name, alias):
			add(w.FilenameAliasToken, "file name contains alias %q as a word", alias)
		case strings.Contains(name, alias):
			add(w.FilenameAliasSubstring, "file name contains alias %q", alias)
		}
	}

	for _, part := range textutils.Words(bankName, w.MinWordLength) {
		switch {
		case textutils.ContainsToken(name, part):
			add(w.FilenameWordToken, "file name contains name word %q", part)
		case strings.Contains(name, part):
			points := w.FilenameWordBase + float64(utf8.RuneCountInString(part))*w.FilenameWordPerRune
			if points > w.FilenameWordMax {
				points = w.FilenameWordMax
			}
			add(points, "file name contains part of name word %q", part)
		}
	}

	if score > w.FilenameTermGate {
		for _, term := range registry.BankingTerms {
			if strings.Contains(name, term) {
				add(w.FilenameBankingTerm, "file name contains banking term %q", term)
			}
		}
	}
	return score, evidence
}

// ClassifyFilename returns the best scoring format for a file name. The
// first format in registry order wins ties. ok is false when the best score
// is below the filename floor.
func ClassifyFilename(filename string, formats []models.FormatDescriptor, w Weights) (FilenameMatch, bool) {
	var best FilenameMatch
	found := false
	for _, f := range formats {
		score, evidence := ScoreFilename(filename, f, w)
		if score > best.Score {
			best = FilenameMatch{Format: f, Score: score, Evidence: evidence}
			found = true
		}
	}
	if !found || best.Score < w.FilenameFloor {
		return best, false
	}
	return best, true
}
