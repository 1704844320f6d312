package abnormal

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Index maps a lowercase word to the set of book pages it appeared on.
type Index map[string]map[int]struct{}

// Add records that word appeared on page.
func (idx Index) Add(word string, page int) {
	pages, ok := idx[word]
	if !ok {
		pages = make(map[int]struct{})
		idx[word] = pages
	}
	pages[page] = struct{}{}
}

// Pages returns the sorted pages recorded for word.
func (idx Index) Pages(word string) []int {
	pages := make([]int, 0, len(idx[word]))
	for p := range idx[word] {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

// Words returns every recorded word sorted with the collation rules of
// locale (a BCP 47 tag such as "es"). An unparsable locale falls back to
// the root collation.
func (idx Index) Words(locale string) []string {
	words := make([]string, 0, len(idx))
	for w, pages := range idx {
		if len(pages) > 0 {
			words = append(words, w)
		}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	collate.New(tag).SortStrings(words)
	return words
}

// Report renders the index as "word: 3, 17, 40" lines.
func (idx Index) Report(locale string) []string {
	words := idx.Words(locale)
	lines := make([]string, 0, len(words))
	for _, w := range words {
		lines = append(lines, w+": "+joinPages(idx.Pages(w)))
	}
	return lines
}

// ReportText is Report joined with newlines, with a trailing newline when
// the report is not empty.
func (idx Index) ReportText(locale string) string {
	lines := idx.Report(locale)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// ReportHTML renders the report as a standalone HTML page for reviewers.
func (idx Index) ReportHTML(locale, title string) ([]byte, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# Abnormal words: %s\n\n", escapeMarkdown(title))
	words := idx.Words(locale)
	if len(words) == 0 {
		md.WriteString("No abnormal words were found.\n")
	} else {
		fmt.Fprintf(&md, "%d words to review.\n\n", len(words))
		for _, w := range words {
			fmt.Fprintf(&md, "- **%s**: %s\n", w, joinPages(idx.Pages(w)))
		}
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Abnormal words</title>\n</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// markdownPunct is the ASCII punctuation that markdown lets a backslash escape.
const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMarkdown escapes s so it renders as literal text.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
