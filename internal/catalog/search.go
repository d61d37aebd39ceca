package catalog

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxResults = 3

// Tokens lower-cases the query and keeps words longer than two characters,
// with surrounding punctuation removed.
func Tokens(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// Search returns the first MaxResults entries, in catalog order, whose tags
// contain any query token.
func (s *Store) Search(query string) ([]Entry, error) {
	if !s.Available() {
		return nil, ErrCatalogUnavailable
	}
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var out []Entry
	for _, e := range s.entries {
		tags := strings.ToLower(e.UseCaseTags)
		for _, t := range tokens {
			if strings.Contains(tags, t) {
				out = append(out, e)
				break
			}
		}
		if len(out) == MaxResults {
			break
		}
	}
	return out, nil
}

// FormatResults renders search hits as the markdown reply shown to the user.
func FormatResults(entries []Entry) string {
	var b strings.Builder
	b.WriteString("Based on your request, here are my top LLM recommendations:\n\n")
	for i, m := range entries {
		fmt.Fprintf(&b, "### %d. **%s**\n", i+1, m.Name)
		fmt.Fprintf(&b, "- **Primary Use Cases:** %s\n", m.UseCaseTags)
		fmt.Fprintf(&b, "- **Size (GB):** %s\n", m.SizeGB)
		fmt.Fprintf(&b, "- **Link:** [%s Page](%s)\n", m.Source, m.Link)
		fmt.Fprintf(&b, "- **Notes:** %s\n\n", m.Notes)
	}
	b.WriteString("Need more specific recommendations? Feel free to tell me more about your exact use case!")
	return b.String()
}
