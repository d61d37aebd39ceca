package document

import (
	"fmt"
	"strings"
)

// UnsupportedTypeError reports an extension with no extraction strategy.
type UnsupportedTypeError struct {
	Ext       string
	Supported []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %q (supported: %s)", e.Ext, strings.Join(e.Supported, ", "))
}

// ExtractionError reports a supported file that could not be read or parsed.
type ExtractionError struct {
	Path     string
	Strategy string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction of %s failed: %v", e.Strategy, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
