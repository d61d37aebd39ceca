package intent

import (
	"strings"
	"unicode"
)

// text is a turn's normalized text: lower-cased, split into words on anything
// that is not a letter or digit, and re-joined with single spaces and padded
// so that phrase checks can anchor on word boundaries.
type text struct {
	padded string
	words  map[string]bool
	fields int
}

func normalize(s string) text {
	lower := strings.ToLower(strings.TrimSpace(s))
	ws := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(ws))
	for _, w := range ws {
		set[w] = true
	}
	return text{
		padded: " " + strings.Join(ws, " ") + " ",
		words:  set,
		fields: len(strings.Fields(lower)),
	}
}

// word reports whether any of ws appears as a whole word.
func (t text) word(ws ...string) bool {
	for _, w := range ws {
		if t.words[w] {
			return true
		}
	}
	return false
}

// phrase reports whether any of ps appears with word boundaries on both ends.
func (t text) phrase(ps ...string) bool {
	for _, p := range ps {
		if strings.Contains(t.padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// prefix reports whether any of ps appears starting at a word boundary; the
// last word may continue ("model" matches "models").
func (t text) prefix(ps ...string) bool {
	for _, p := range ps {
		if strings.Contains(t.padded, " "+p) {
			return true
		}
	}
	return false
}
