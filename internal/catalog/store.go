// Package catalog holds the tabular model catalog loaded from CSV and the
// keyword search over its use-case tags.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrCatalogUnavailable means the catalog source could not be loaded; it is
// distinct from a search with no matches.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

type Entry struct {
	Name        string
	UseCaseTags string
	SizeGB      string
	Link        string
	Source      string
	Notes       string
}

// Store is immutable once built.
type Store struct {
	entries []Entry
}

var requiredColumns = []string{"model_name", "use_case_tags"}

// Load reads a CSV file with a header row. Columns are addressed by name:
// model_name, use_case_tags, size_gb, link, source, notes.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("catalog: missing column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", len(entries)+1, err)
		}
		entries = append(entries, Entry{
			Name:        field(rec, "model_name"),
			UseCaseTags: field(rec, "use_case_tags"),
			SizeGB:      field(rec, "size_gb"),
			Link:        field(rec, "link"),
			Source:      field(rec, "source"),
			Notes:       field(rec, "notes"),
		})
	}
	return &Store{entries: entries}, nil
}

// Len reports the number of loaded entries; zero for a nil store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Available is false for a nil store or one with no rows.
func (s *Store) Available() bool {
	return s.Len() > 0
}
