package toc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCorrespondence parses a page-correction expression of the form
// "<bookPage>=<pdfPage>" and returns the offset pdfPage - bookPage.
func ParseCorrespondence(expr string) (int, error) {
	s := strings.TrimSpace(expr)
	bookStr, pdfStr, ok := strings.Cut(s, "=")
	if !ok || strings.Contains(pdfStr, "=") {
		return 0, fmt.Errorf("%w: %q, expected bookPage=pdfPage (for example 1=15)", ErrInvalidCorrection, expr)
	}
	book, err := strconv.Atoi(strings.TrimSpace(bookStr))
	if err != nil || book < 1 {
		return 0, fmt.Errorf("%w: book page %q must be a positive integer", ErrInvalidCorrection, bookStr)
	}
	pdf, err := strconv.Atoi(strings.TrimSpace(pdfStr))
	if err != nil || pdf < 1 {
		return 0, fmt.Errorf("%w: pdf page %q must be a positive integer", ErrInvalidCorrection, pdfStr)
	}
	return pdf - book, nil
}

// ToPhysical translates a book page into a 1-based physical PDF page.
func ToPhysical(bookPage, offset int) int {
	return bookPage + offset
}
