package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract binary on page images.
type Tesseract struct {
	Language string
	binary   string
}

// NewTesseract returns a Tesseract recognizer for the given language code
// (for example "spa" or "eng").
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, binary: "tesseract"}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available reports whether the tesseract binary can be found.
func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("tesseract not found in PATH: %w", err)
	}
	return nil
}

// Recognize writes the recognized text to stdout instead of a temp file so
// concurrent pages never share output paths.
func (t *Tesseract) Recognize(ctx context.Context, page Page) (string, error) {
	if page.ImagePath == "" {
		return "", fmt.Errorf("page %d has no image", page.Number)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, page.ImagePath, "stdout", "-l", t.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &RetryableError{
			Engine:  t.Name(),
			Message: fmt.Sprintf("page %d: %v: %s", page.Number, err, strings.TrimSpace(stderr.String())),
		}
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
