package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Pdftotext reads a page's text layer with poppler's pdftotext. It copes
// with some encodings the pure-Go reader cannot decode.
type Pdftotext struct{}

func NewPdftotext() *Pdftotext { return &Pdftotext{} }

func (p *Pdftotext) Name() string { return "pdftotext" }

// Available reports whether the pdftotext binary is on PATH.
func (p *Pdftotext) Available() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return fmt.Errorf("pdftotext not found: %w", err)
	}
	return nil
}

func (p *Pdftotext) Recognize(ctx context.Context, page Page) (string, error) {
	n := strconv.Itoa(page.Number)
	cmd := exec.CommandContext(ctx, "pdftotext", "-f", n, "-l", n, "-layout", page.PDFPath, "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("pdftotext page %d: %w: %s", page.Number, err, strings.TrimSpace(stderr.String()))
	}
	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", ""))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
