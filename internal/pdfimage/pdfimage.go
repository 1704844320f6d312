// Package pdfimage renders the pages of a scanned PDF to PNG images.
package pdfimage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return n, nil
}

// Target says where each page image goes and whether it already exists.
type Target interface {
	ImagePath(page int) string
	HasImage(page int) bool
}

// RenderFunc renders one PDF page (1-based) to a PNG file at dst.
type RenderFunc func(ctx context.Context, pdfPath string, page int, dst string) error

// Renderer renders page images with bounded concurrency.
type Renderer struct {
	DPI     int
	Workers int
	Log     *slog.Logger

	render RenderFunc
}

// NewRenderer returns a Renderer backed by pdftoppm (poppler-utils).
func NewRenderer(dpi, workers int, log *slog.Logger) *Renderer {
	if dpi <= 0 {
		dpi = 300
	}
	if workers <= 0 {
		workers = 1
	}
	r := &Renderer{DPI: dpi, Workers: workers, Log: log}
	r.render = r.pdftoppm
	return r
}

// RenderAll renders every page of pdfPath that does not have an image yet.
// It returns the number of pages rendered in this call and the joined
// errors of the pages that failed. onPage, if set, is called after each
// page completes.
func (r *Renderer) RenderAll(ctx context.Context, pdfPath string, pages int, target Target, onPage func(page int)) (int, error) {
	type result struct {
		page int
		err  error
	}

	var todo []int
	for p := 1; p <= pages; p++ {
		if !target.HasImage(p) {
			todo = append(todo, p)
		}
	}
	if len(todo) == 0 {
		return 0, nil
	}

	results := make(chan result, len(todo))
	sem := make(chan struct{}, r.Workers)
	for _, p := range todo {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		go func(page int) {
			defer func() { <-sem }()
			results <- result{page: page, err: r.renderPage(ctx, pdfPath, page, target.ImagePath(page))}
		}(p)
	}

	var errs []error
	rendered := 0
	for range todo {
		res := <-results
		if res.err != nil {
			errs = append(errs, fmt.Errorf("render page %d: %w", res.page, res.err))
			continue
		}
		rendered++
		if onPage != nil {
			onPage(res.page)
		}
	}
	return rendered, errors.Join(errs...)
}

// renderPage renders into a staging file next to dst and renames it into
// place, so an interrupted render never leaves a partial image at dst.
func (r *Renderer) renderPage(ctx context.Context, pdfPath string, page int, dst string) error {
	part := dst + ".part"
	if err := r.render(ctx, pdfPath, page, part); err != nil {
		os.Remove(part)
		return err
	}
	if err := os.Rename(part, dst); err != nil {
		os.Remove(part)
		return fmt.Errorf("store page image: %w", err)
	}
	return nil
}

// pdftoppm renders a single page using the pdftoppm binary.
func (r *Renderer) pdftoppm(ctx context.Context, pdfPath string, page int, dst string) error {
	tmpDir, err := os.MkdirTemp("", "scanbook-page-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(r.DPI),
		"-singlefile",
		pdfPath,
		prefix,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	// -singlefile writes <prefix>.png
	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write page image: %w", err)
	}
	if r.Log != nil {
		r.Log.Debug("rendered page", "page", page, "bytes", len(data))
	}
	return nil
}

var partSuffixRe = regexp.MustCompile(`[-_ ]\d+$`)

// DeriveTitle turns an upload filename into a book title:
// "my-book-1.pdf" becomes "my-book".
func DeriveTitle(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = partSuffixRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return ""
	}
	return name
}
