// Package textutils holds the text normalisation shared by the classifier,
// the column mapper and the ledger transcoder.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Lower lower-cases s after NFC composition. Dotless ı is kept distinct from
// i, so "AÇIKLAMA" lowers to "açiklama" and not to "açıklama".
func Lower(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// FoldLower lower-cases s for keyword matching. Dotted and dotless i fold
// to the same letter so "AÇIKLAMA" and "Açıklama" compare equal.
func FoldLower(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	s = strings.ReplaceAll(s, "i̇", "i")
	return strings.ReplaceAll(s, "ı", "i")
}

// FoldUpper upper-cases s for keyword matching with the same i folding as
// FoldLower ("Garanti" and "GARANTİ" both become "GARANTI").
func FoldUpper(s string) string {
	s = strings.ToUpper(norm.NFC.String(s))
	return strings.ReplaceAll(s, "İ", "I")
}

// CleanDescription replaces every rune that is not a letter, digit or space
// with a space, collapses whitespace runs and trims the ends.
func CleanDescription(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ContainsToken reports whether word occurs in text as a whole token, that
// is surrounded by spaces once text is padded with a space on each side.
func ContainsToken(text, word string) bool {
	if word == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+word+" ")
}

// ContainsWord reports whether word occurs in text bounded by non
// alphanumeric runes (or the ends of text).
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; start <= len(text)-len(word); {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		if boundaryBefore(text, idx) && boundaryAfter(text, end) {
			return true
		}
		start = idx + 1
	}
	return false
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r := lastRune(text[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r := []rune(text[end:])[0]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}

// Words splits s on whitespace and returns the words of at least min runes.
func Words(s string, min int) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) >= min {
			out = append(out, w)
		}
	}
	return out
}
