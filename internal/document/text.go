package document

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// extractText decodes UTF-8, falling back to ISO-8859-1 for anything else.
func extractText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
