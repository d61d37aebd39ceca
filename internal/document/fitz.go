package document

import (
	"strings"

	"github.com/gen2brain/go-fitz"
)

// extractFitz reads every page of a PDF or EPUB through MuPDF.
func extractFitz(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
