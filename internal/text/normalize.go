package text

import (
	"regexp"
	"strings"
)

// Arabic letter variants → Persian canonical forms.
var arabicToPersian = map[rune]rune{
	'ي': 'ی',
	'ك': 'ک',
	'ة': 'ه',
	'ۀ': 'ه',
	'ؤ': 'و',
	'أ': 'ا',
	'إ': 'ا',
	'ٱ': 'ا',
	'آ': 'ا',
	'ئ': 'ی',
}

// Persian and Arabic-Indic digit glyphs → ASCII.
var digitFold = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// Separators collapsed to a single space: Persian/Latin punctuation, kashida,
// ZWNJ and ZWJ joiners.
var punctToSpace = map[rune]struct{}{
	'،': {}, ',': {}, '؛': {}, ';': {}, ':': {}, '.': {},
	'ـ': {}, '‌': {}, '‍': {},
}

var spaceRun = regexp.MustCompile(`\s+`)

// FoldDigits converts Persian/Arabic digit glyphs to ASCII, strips the
// Arabic thousands separator along with the Latin comma, and maps the Arabic
// decimal separator to a dot. Applied before any numeric parsing and as the
// first stage of Normalize.
func FoldDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if d, ok := digitFold[r]; ok {
			b.WriteRune(d)
			continue
		}
		switch r {
		case '٬', ',':
			// thousands separators are dropped outright
		case '٫':
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Normalize produces the canonical product key. It is the sole equality basis
// for "same product" across the whole system and must stay idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(value string) string {
	out := FoldDigits(value)

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if _, ok := punctToSpace[r]; ok {
			b.WriteRune(' ')
			continue
		}
		if rr, ok := arabicToPersian[r]; ok {
			r = rr
		}
		b.WriteRune(r)
	}
	out = spaceRun.ReplaceAllString(b.String(), " ")
	out = strings.TrimSpace(out)
	return strings.ToLower(out)
}

// IsEmptyMarker reports whether a cell value means "no value": blanks and the
// literal NaN/None/null spellings spreadsheet round-trips produce.
func IsEmptyMarker(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// NormalizeSearch is the looser variant used for live table filtering: digits
// are folded and case is ignored, but punctuation is kept so users can search
// for it literally.
func NormalizeSearch(value string) string {
	return strings.ToLower(FoldDigits(value))
}
