// Package assemble builds chapter bodies from per-page recognized text.
package assemble

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/scanbook/internal/abnormal"
	"github.com/dgallion1/scanbook/internal/toc"
)

// PageTextProvider returns the corrected text of a physical page (1-based).
// ok is false when no text exists for that page.
type PageTextProvider interface {
	PageText(physicalPage int) (text string, ok bool)
}

// PageTextFunc adapts a function to PageTextProvider.
type PageTextFunc func(physicalPage int) (string, bool)

func (f PageTextFunc) PageText(physicalPage int) (string, bool) {
	return f(physicalPage)
}

// Section is one assembled chapter, ready for packaging.
type Section struct {
	Title string
	Body  string // XHTML paragraphs
	Pages []int  // book pages that contributed text
}

// Result holds the assembled sections in chapter order and the abnormal
// words found while reading them.
type Result struct {
	Sections []Section
	Abnormal abnormal.Index
	Skipped  []string // chapters whose page range could not be parsed
}

// Request describes one assembly run.
type Request struct {
	Chapters   []toc.Chapter
	Pages      PageTextProvider
	Offset     int
	TotalPages int
	Collector  *abnormal.Collector
	Log        *slog.Logger
}

// Assemble walks the chapters in order, translating each book page to its
// physical page and concatenating the text found there. Pages outside
// [1, TotalPages] and pages without text are skipped; chapters that end up
// with no text are dropped.
func Assemble(req Request) Result {
	log := req.Log
	if log == nil {
		log = slog.Default()
	}
	collector := req.Collector
	if collector == nil {
		collector = abnormal.NewCollector(abnormal.Vocabulary{}, nil)
	}

	var res Result
	for _, ch := range req.Chapters {
		r, err := ch.Range()
		if err != nil {
			log.Warn("skipping chapter with invalid page range", "title", ch.Title, "pages", ch.Pages, "error", err)
			res.Skipped = append(res.Skipped, ch.Title)
			continue
		}

		var body, raw strings.Builder
		var pages []int
		for bookPage := r.Start; bookPage <= r.End; bookPage++ {
			physical := toc.ToPhysical(bookPage, req.Offset)
			if physical < 1 || physical > req.TotalPages {
				continue
			}
			text, ok := req.Pages.PageText(physical)
			if !ok {
				log.Debug("no text for page", "book_page", bookPage, "physical_page", physical)
				continue
			}

			collector.Scan(text, bookPage)
			raw.WriteString(text)
			if strings.TrimSpace(text) != "" {
				body.WriteString(Paragraphs(text))
				pages = append(pages, bookPage)
			}
		}

		if strings.TrimSpace(raw.String()) == "" {
			log.Info("dropping empty chapter", "title", ch.Title, "pages", ch.Pages)
			continue
		}
		res.Sections = append(res.Sections, Section{
			Title: ch.Title,
			Body:  body.String(),
			Pages: pages,
		})
	}

	res.Abnormal = collector.Index()
	return res
}
