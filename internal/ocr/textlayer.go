package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
)

// TextLayer reads the embedded text layer of a PDF instead of running OCR.
// Many "scanned" books come out of scanners that already ran OCR, and this
// is far cheaper than recognizing images again.
type TextLayer struct {
	mu    sync.Mutex
	docs  map[string]*openDoc
	order []string // least recently opened first
}

// maxOpenDocs bounds the open-document cache; a long-running server sees a
// new PDF per job.
const maxOpenDocs = 4

type openDoc struct {
	f *os.File
	r *pdflib.Reader
}

func NewTextLayer() *TextLayer {
	return &TextLayer{docs: make(map[string]*openDoc)}
}

func (t *TextLayer) Name() string { return "textlayer" }

func (t *TextLayer) Recognize(ctx context.Context, page Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	doc, err := t.open(page.PDFPath)
	if err != nil {
		return "", err
	}
	if page.Number < 1 || page.Number > doc.r.NumPage() {
		return "", fmt.Errorf("page %d out of range (1-%d)", page.Number, doc.r.NumPage())
	}
	p := doc.r.Page(page.Number)
	if p.V.IsNull() {
		return "", ErrNoText
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d text: %w", page.Number, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (t *TextLayer) open(path string) (*openDoc, error) {
	if doc, ok := t.docs[path]; ok {
		return doc, nil
	}
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	for len(t.order) >= maxOpenDocs {
		oldest := t.order[0]
		t.order = t.order[1:]
		t.docs[oldest].f.Close()
		delete(t.docs, oldest)
	}
	doc := &openDoc{f: f, r: r}
	t.docs[path] = doc
	t.order = append(t.order, path)
	return doc, nil
}

// Close releases every opened document.
func (t *TextLayer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, doc := range t.docs {
		doc.f.Close()
		delete(t.docs, path)
	}
	t.order = nil
	return nil
}
