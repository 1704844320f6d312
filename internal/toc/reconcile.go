package toc

import (
	"fmt"
	"slices"
)

const (
	// IntroductionTitle names the chapter synthesized before the first user chapter.
	IntroductionTitle = "Introduction"
	// AppendicesTitle names the chapter synthesized after the last user chapter.
	AppendicesTitle = "Appendices"
)

// Reconcile orders the user's chapters by starting page and fills the gaps
// at either end of the book span with synthetic chapters, so no page before
// the first chapter or after the last one is lost. With no chapters the
// whole span becomes a single chapter named defaultTitle.
//
// Chapters are assumed non-overlapping; that is the caller's responsibility.
// Chapters whose range does not parse sort first and are kept as-is.
func Reconcile(chapters []Chapter, bookStart, bookEnd int, defaultTitle string) []Chapter {
	if len(chapters) == 0 {
		return []Chapter{{
			Title: defaultTitle,
			Pages: PageRange{Start: bookStart, End: bookEnd}.String(),
		}}
	}

	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b Chapter) int {
		return startOf(a) - startOf(b)
	})

	firstStart := startOf(sorted[0])
	lastEnd := endOf(sorted[len(sorted)-1])

	out := make([]Chapter, 0, len(sorted)+2)
	if firstStart > bookStart {
		out = append(out, Chapter{
			Title: IntroductionTitle,
			Pages: PageRange{Start: bookStart, End: firstStart - 1}.String(),
		})
	}
	out = append(out, sorted...)
	if lastEnd < bookEnd {
		out = append(out, Chapter{
			Title: AppendicesTitle,
			Pages: PageRange{Start: lastEnd + 1, End: bookEnd}.String(),
		})
	}
	return out
}

func startOf(c Chapter) int {
	r, err := c.Range()
	if err != nil {
		return 0
	}
	return r.Start
}

func endOf(c Chapter) int {
	r, err := c.Range()
	if err != nil {
		return 0
	}
	return r.End
}

// BookSpan returns the book-page span covered by a scanned document of
// totalPages physical pages. Physical pages that map below book page 1 are
// outside the book-page coordinate space.
func BookSpan(totalPages, offset int) (start, end int) {
	start = max(1, 1-offset)
	end = totalPages - offset
	return start, end
}

// CheckSpan returns ErrNoBookPages when a document of totalPages physical
// pages has no book pages under offset.
func CheckSpan(totalPages, offset int) error {
	if start, end := BookSpan(totalPages, offset); end < start {
		return fmt.Errorf("%w: offset %d with %d pages", ErrNoBookPages, offset, totalPages)
	}
	return nil
}
