// Package ocr turns rendered page images into text.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoText is returned when an engine ran but found nothing to read.
var ErrNoText = errors.New("no text recognized")

// Page identifies the page to recognize.
type Page struct {
	Number    int    // physical page, 1-based
	ImagePath string // rendered PNG
	PDFPath   string // source document
}

// Recognizer extracts the text of one page.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, page Page) (string, error)
}

// Chain tries each recognizer in order and returns the first text found.
type Chain []Recognizer

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

// Recognize returns ErrNoText only when every recognizer found nothing;
// a real failure in any of them is reported instead.
func (c Chain) Recognize(ctx context.Context, page Page) (string, error) {
	if len(c) == 0 {
		return "", fmt.Errorf("no recognizers configured")
	}
	var errs []error
	for _, r := range c {
		text, err := r.Recognize(ctx, page)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, ErrNoText) {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	if len(errs) == 0 {
		return "", ErrNoText
	}
	return "", errors.Join(errs...)
}
