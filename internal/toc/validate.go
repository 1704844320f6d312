package toc

import (
	"fmt"
	"strings"
)

// Chapter is a named, contiguous range of book pages.
type Chapter struct {
	Title string `json:"title"`
	Pages string `json:"pages"`
}

// Range parses the chapter's page range.
func (c Chapter) Range() (PageRange, error) {
	return ParseRange(c.Pages)
}

const lineFormat = "Title: start-end"

// Validate parses raw TOC text into chapters, one per non-blank line, in
// input order. Each line must look like "Title: 12-30". The first bad line
// aborts the whole parse; no chapters are returned alongside an error.
func Validate(raw string) ([]Chapter, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var chapters []Chapter
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if n := strings.Count(line, ":"); n != 1 {
			return nil, fmt.Errorf("%w: %q has %d colons, expected exactly one (format %q)", ErrInvalidLine, line, n, lineFormat)
		}
		titlePart, pagesPart, _ := strings.Cut(line, ":")

		title := strings.TrimSpace(titlePart)
		if title == "" {
			return nil, fmt.Errorf("%w: %q has an empty title (format %q)", ErrInvalidLine, line, lineFormat)
		}

		pages := strings.TrimSpace(pagesPart)
		r, err := ParseRange(pages)
		if err != nil {
			return nil, fmt.Errorf("%w: %q in line %q is not a page range like 12-30", ErrInvalidLine, pages, line)
		}
		if r.Start > r.End {
			return nil, fmt.Errorf("%w: %q in line %q starts after it ends", ErrInvalidLine, pages, line)
		}

		chapters = append(chapters, Chapter{Title: title, Pages: pages})
	}
	return chapters, nil
}
