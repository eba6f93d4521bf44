package suggest

import (
	"iter"
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExpandRule maps every character matched by Pattern to Alternate.
type ExpandRule struct {
	Pattern   *regexp.Regexp
	Alternate string
}

// DefaultExpandRules lets unaccented prefixes find accented vowels.
var DefaultExpandRules = []ExpandRule{
	{Pattern: regexp.MustCompile(`(?i)[åäàáâãæ]`), Alternate: "a"},
	{Pattern: regexp.MustCompile(`(?i)[èéêë]`), Alternate: "e"},
	{Pattern: regexp.MustCompile(`(?i)[ìíîï]`), Alternate: "i"},
	{Pattern: regexp.MustCompile(`(?i)[òóôõö]`), Alternate: "o"},
	{Pattern: regexp.MustCompile(`(?i)[ùúûü]`), Alternate: "u"},
	{Pattern: regexp.MustCompile(`(?i)[æ]`), Alternate: "ae"},
}

// expand yields value first, then one variant per rule match with only
// that character replaced. Variants do not compound.
func expand(value string, rules []ExpandRule, fold bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(value) {
			return
		}
		for _, r := range rules {
			for _, loc := range r.Pattern.FindAllStringIndex(value, -1) {
				if !yield(value[:loc[0]] + r.Alternate + value[loc[1]:]) {
					return
				}
			}
		}
		if fold {
			if folded := foldDiacritics(value); folded != value {
				yield(folded)
			}
		}
	}
}

// foldDiacritics strips combining marks after canonical decomposition.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
