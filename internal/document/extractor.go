// Package document turns uploaded files into plain text for prompting.
package document

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Strategy extracts the text of one file format.
type Strategy struct {
	Name    string
	Extract func(path string) (string, error)
}

var (
	plainText = Strategy{Name: "text", Extract: extractText}
	pdf       = Strategy{Name: "pdf", Extract: extractFitz}
	docx      = Strategy{Name: "docx", Extract: extractDOCX}
	pptx      = Strategy{Name: "pptx", Extract: extractPPTX}
)

// DefaultStrategies maps lower-case extensions to their strategy.
func DefaultStrategies() map[string]Strategy {
	return map[string]Strategy{
		".txt":  plainText,
		".md":   plainText,
		".py":   plainText,
		".go":   plainText,
		".json": plainText,
		".csv":  plainText,
		".log":  plainText,
		".pdf":  pdf,
		".epub": pdf,
		".docx": docx,
		".pptx": pptx,
	}
}

type Extractor struct {
	strategies map[string]Strategy
}

func NewExtractor(strategies map[string]Strategy) *Extractor {
	if strategies == nil {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// Supported lists the handled extensions, sorted.
func (x *Extractor) Supported() []string {
	out := make([]string, 0, len(x.strategies))
	for ext := range x.strategies {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract returns *UnsupportedTypeError or *ExtractionError on failure.
func (x *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s, ok := x.strategies[ext]
	if !ok {
		return "", &UnsupportedTypeError{Ext: ext, Supported: x.Supported()}
	}
	text, err := s.Extract(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Strategy: s.Name, Err: err}
	}
	return text, nil
}

// Truncate keeps at most n runes of text. n <= 0 disables the bound.
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
