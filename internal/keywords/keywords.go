// Package keywords turns free text into a normalized set of indexable
// tokens. Extraction is deterministic: the same text always yields the
// same keyword set, in first-seen order.
package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MaxKeywords bounds index fan-out per text.
const MaxKeywords = 10

// minLength excludes short tokens; only words longer than this many
// runes survive.
const minLength = 3

var stopwords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true,
	"been": true, "before": true, "being": true, "between": true,
	"both": true, "could": true, "does": true, "doing": true,
	"during": true, "each": true, "from": true, "further": true,
	"have": true, "having": true, "here": true, "into": true,
	"just": true, "more": true, "most": true, "only": true,
	"other": true, "over": true, "same": true, "should": true,
	"some": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true,
	"through": true, "under": true, "until": true, "very": true,
	"were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true,
}

// Extract returns the lowercase keywords of text: word-split on anything
// that is not a letter or digit, filtered to length > 3, stop words
// removed, deduplicated, capped at MaxKeywords. It never fails; text
// with no qualifying words yields an empty slice.
func Extract(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kws := lo.Uniq(lo.Filter(words, func(w string, _ int) bool {
		return utf8.RuneCountInString(w) > minLength && !stopwords[w]
	}))

	if len(kws) > MaxKeywords {
		kws = kws[:MaxKeywords]
	}
	return kws
}
