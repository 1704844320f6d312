package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/scanbook/internal/abnormal"
	"github.com/dgallion1/scanbook/internal/alphabet"
	"github.com/dgallion1/scanbook/internal/assemble"
	"github.com/dgallion1/scanbook/internal/correction"
	"github.com/dgallion1/scanbook/internal/docxbook"
	"github.com/dgallion1/scanbook/internal/epub"
	"github.com/dgallion1/scanbook/internal/ocr"
	"github.com/dgallion1/scanbook/internal/pagestore"
	"github.com/dgallion1/scanbook/internal/pdfimage"
	"github.com/dgallion1/scanbook/internal/storage"
	"github.com/dgallion1/scanbook/internal/toc"
)

// Renderer renders missing page images of a PDF.
type Renderer interface {
	RenderAll(ctx context.Context, pdfPath string, pages int, target pdfimage.Target, onPage func(page int)) (int, error)
}

// PageCounter returns the number of pages of a PDF file.
type PageCounter func(path string) (int, error)

// Converter runs one book conversion from source PDF to stored artifacts.
// It is safe for concurrent use by several workers.
type Converter struct {
	Recognizer ocr.Recognizer
	Renderer   Renderer // nil when the recognizer reads the PDF directly
	CountPages PageCounter
	Storage    storage.Adapter

	// Corrector is nil when no correction dictionary was loaded.
	Corrector  *correction.Corrector
	Vocabulary abnormal.Vocabulary
	Alphabet   *alphabet.Alphabet

	DataDir          string
	MaxConcurrentOCR int
	PageTimeout      time.Duration
	Language         string // book language and report collation locale
	DefaultTitle     string

	// OnProgress, if set, receives every progress message in addition to
	// the job's event log.
	OnProgress ProgressFunc

	Log *slog.Logger
}

// Run converts the job's document. The final status is always terminal:
// completed, partial when some pages could not be recognized, or failed.
func (c *Converter) Run(ctx context.Context, job *Job) {
	log := c.Log.With("job_id", job.ID, "doc_id", job.DocID)
	start := time.Now()

	notify := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		job.Notify(msg)
		if c.OnProgress != nil {
			c.OnProgress(msg)
		}
	}
	setStatus := func(status JobStatus, phase string) {
		job.SetStatus(status, phase)
		if c.OnProgress != nil {
			c.OnProgress(phase)
		}
	}
	fail := func(phase string, err error) {
		log.Error("conversion failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		setStatus(StatusFailed, phase+" failed")
	}

	// Phase 1: workspace + page count
	ws, err := pagestore.Open(c.DataDir, job.DocID)
	if err != nil {
		fail("workspace", err)
		return
	}
	if err := c.writeSource(ws, job); err != nil {
		fail("workspace", err)
		return
	}
	total, err := c.CountPages(ws.SourcePath())
	if err != nil {
		fail("page count", err)
		return
	}
	if total == 0 {
		fail("page count", errors.New("document has no pages"))
		return
	}
	if err := toc.CheckSpan(total, job.Offset); err != nil {
		fail("page offset", err)
		return
	}
	job.UpdateProgress(func(p *Progress) { p.TotalPages = total })
	log.Info("document opened", "pages", total, "workspace", ws.Dir())

	store := ws.Text()
	cached := 0
	for p := 1; p <= total; p++ {
		if store.Has(p) {
			cached++
		}
	}
	if cached > 0 {
		job.UpdateProgress(func(p *Progress) { p.PagesCached = cached })
		notify("resuming with %d of %d pages already recognized", cached, total)
	}

	// Phase 2: render page images
	if c.Renderer != nil && cached < total {
		setStatus(StatusRendering, "rendering pages")
		target := resumeTarget{ws: ws, text: store}
		rendered, err := c.Renderer.RenderAll(ctx, ws.SourcePath(), total, target, func(page int) {
			job.UpdateProgress(func(p *Progress) { p.PagesRendered++ })
			notify("rendered page %d/%d", page, total)
		})
		if err != nil {
			// Pages that failed to render fail recognition on their own
			// unless an engine reads them from the PDF.
			if ctx.Err() != nil || !anyPageAvailable(target, total) {
				fail("rendering", err)
				return
			}
			log.Warn("some pages could not be rendered", "error", err)
			job.AddError(fmt.Sprintf("rendering: %s", err))
		}
		log.Info("rendering complete", "rendered", rendered)
	}

	// Phase 3: recognize, correct and cache page text
	setStatus(StatusRecognizing, "recognizing pages")
	failed, err := c.recognize(ctx, job, ws, total, log, notify)
	if err != nil {
		fail("recognition", err)
		return
	}
	if failed == total {
		fail("recognition", errors.New("no page could be recognized"))
		return
	}

	// Phase 4: reconcile chapters and assemble text
	setStatus(StatusAssembling, "assembling chapters")
	title := c.bookTitle(job)
	bookStart, bookEnd := toc.BookSpan(total, job.Offset)
	chapters := toc.Reconcile(job.Chapters, bookStart, bookEnd, title)
	job.UpdateProgress(func(p *Progress) { p.Chapters = len(chapters) })
	notify("reconciled %d chapters over book pages %d-%d", len(chapters), bookStart, bookEnd)

	collector := abnormal.NewCollector(c.Vocabulary, c.Alphabet)
	res := assemble.Assemble(assemble.Request{
		Chapters:   chapters,
		Pages:      store,
		Offset:     job.Offset,
		TotalPages: total,
		Collector:  collector,
		Log:        log,
	})
	for _, name := range res.Skipped {
		job.AddError(fmt.Sprintf("chapter %q skipped: invalid page range", name))
	}
	job.UpdateProgress(func(p *Progress) {
		p.Sections = len(res.Sections)
		p.AbnormalWords = len(res.Abnormal)
	})
	if len(res.Sections) == 0 {
		fail("assembly", errors.New("no chapter contains any text"))
		return
	}
	notify("assembled %d of %d chapters", len(res.Sections), len(chapters))

	// Phase 5: package and store artifacts
	setStatus(StatusPackaging, "packaging book")
	if err := c.packageEPUB(ctx, job, title, res.Sections); err != nil {
		fail("packaging", err)
		return
	}
	notify("epub written")

	if job.WantDOCX {
		if err := c.packageDOCX(ctx, job, title, res.Sections); err != nil {
			log.Warn("docx export failed", "error", err)
			job.AddError(fmt.Sprintf("docx: %s", err))
		} else {
			notify("docx written")
		}
	}

	if collector.Enabled() {
		if err := c.storeReports(ctx, job, title, res.Abnormal); err != nil {
			log.Warn("report write failed", "error", err)
			job.AddError(fmt.Sprintf("report: %s", err))
		} else {
			notify("abnormal word report written (%d words)", len(res.Abnormal))
		}
	}

	log.Info("conversion complete",
		"sections", len(res.Sections),
		"failed_pages", failed,
		"abnormal_words", len(res.Abnormal),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if failed > 0 {
		setStatus(StatusPartial, fmt.Sprintf("done with %d unrecognized pages", failed))
		return
	}
	setStatus(StatusCompleted, "done")
}

// writeSource persists the uploaded PDF into the workspace. A source left
// by an earlier run is kept only when it hashes to the job's document id.
func (c *Converter) writeSource(ws *pagestore.Workspace, job *Job) error {
	data := job.FileData()
	if len(data) == 0 {
		if _, err := os.Stat(ws.SourcePath()); err != nil {
			return fmt.Errorf("no source document: %w", err)
		}
		return nil
	}
	if existing, err := os.ReadFile(ws.SourcePath()); err != nil || DocumentID(existing) != job.DocID {
		if err := ws.WriteSource(data); err != nil {
			return err
		}
	}
	job.releaseFileData()
	return nil
}

// recognize fills the page store for every page that has no cached text.
// It returns the number of pages that still failed after retries.
func (c *Converter) recognize(ctx context.Context, job *Job, ws *pagestore.Workspace, total int, log *slog.Logger, notify func(string, ...any)) (int, error) {
	store := ws.Text()
	limit := c.MaxConcurrentOCR
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	for page := 1; page <= total; page++ {
		if store.Has(page) {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return failed, ctx.Err()
		}
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()

			text, err := c.recognizePage(ctx, ws, page)
			if err != nil {
				log.Error("page recognition failed", "page", page, "error", err)
				job.AddError(fmt.Sprintf("page %d: %s", page, err))
				job.UpdateProgress(func(p *Progress) { p.PagesFailed++ })
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			if err := store.Put(page, text); err != nil {
				log.Error("page cache write failed", "page", page, "error", err)
				job.AddError(fmt.Sprintf("page %d: %s", page, err))
				job.UpdateProgress(func(p *Progress) { p.PagesFailed++ })
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			job.UpdateProgress(func(p *Progress) { p.PagesRecognized++ })
			notify("recognized page %d/%d", page, total)
		}(page)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return failed, err
	}
	return failed, nil
}

func (c *Converter) recognizePage(ctx context.Context, ws *pagestore.Workspace, page int) (string, error) {
	pageCtx := ctx
	if c.PageTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, c.PageTimeout)
		defer cancel()
	}

	text, err := c.Recognizer.Recognize(pageCtx, ocr.Page{
		Number:    page,
		ImagePath: ws.ImagePath(page),
		PDFPath:   ws.SourcePath(),
	})
	if errors.Is(err, ocr.ErrNoText) {
		// Blank pages are cached as empty so they are not retried.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if c.Corrector != nil {
		text = c.Corrector.Correct(text)
	}
	return text, nil
}

func (c *Converter) bookTitle(job *Job) string {
	if job.Title != "" {
		return job.Title
	}
	if t := pdfimage.DeriveTitle(job.Filename); t != "" {
		return t
	}
	return c.DefaultTitle
}

func (c *Converter) packageEPUB(ctx context.Context, job *Job, title string, sections []assemble.Section) error {
	chapters := make([]epub.Chapter, len(sections))
	for i, s := range sections {
		chapters[i] = epub.Chapter{Title: s.Title, Body: s.Body}
	}
	buf, err := epub.NewBuilder(epub.Book{
		ID:       uuidFromDocID(job.DocID),
		Title:    title,
		Language: c.Language,
	}, chapters).BuildToBuffer()
	if err != nil {
		return fmt.Errorf("build epub: %w", err)
	}
	return c.put(ctx, job, ArtifactEPUB, "book.epub", buf)
}

func (c *Converter) packageDOCX(ctx context.Context, job *Job, title string, sections []assemble.Section) error {
	secs := make([]docxbook.Section, len(sections))
	for i, s := range sections {
		secs[i] = docxbook.Section{Title: s.Title, Body: s.Body}
	}
	var buf bytes.Buffer
	if err := docxbook.Write(&buf, title, secs); err != nil {
		return err
	}
	return c.put(ctx, job, ArtifactDOCX, "book.docx", &buf)
}

func (c *Converter) storeReports(ctx context.Context, job *Job, title string, idx abnormal.Index) error {
	text := idx.ReportText(c.Language)
	if err := c.put(ctx, job, ArtifactReport, "abnormal_words.txt", bytes.NewBufferString(text)); err != nil {
		return err
	}
	page, err := idx.ReportHTML(c.Language, title)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return c.put(ctx, job, ArtifactReportHTML, "abnormal_words.html", bytes.NewBuffer(page))
}

func (c *Converter) put(ctx context.Context, job *Job, artifact, name string, data *bytes.Buffer) error {
	key := storage.Key(job.ID, name)
	if err := c.Storage.Put(ctx, key, bytes.NewReader(data.Bytes())); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	job.SetOutput(artifact, key)
	return nil
}

// resumeTarget reports a page image as present when the page text is
// already cached, so resumed runs do not re-render recognized pages.
type resumeTarget struct {
	ws   *pagestore.Workspace
	text *pagestore.Store
}

func (t resumeTarget) ImagePath(page int) string { return t.ws.ImagePath(page) }

func (t resumeTarget) HasImage(page int) bool {
	return t.text.Has(page) || t.ws.HasImage(page)
}

func anyPageAvailable(t pdfimage.Target, total int) bool {
	for p := 1; p <= total; p++ {
		if t.HasImage(p) {
			return true
		}
	}
	return false
}
