// Package toc parses user-supplied tables of contents and reconciles them
// against the page span of a scanned book.
package toc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is returned for page ranges that are not "start-end".
	ErrInvalidRange = errors.New("invalid page range")
	// ErrInvalidLine is returned for TOC lines that cannot be parsed.
	ErrInvalidLine = errors.New("invalid toc line")
	// ErrInvalidCorrection is returned for malformed page-correction expressions.
	ErrInvalidCorrection = errors.New("invalid page correction")
	// ErrNoBookPages means the page offset places every physical page before
	// book page 1.
	ErrNoBookPages = errors.New("page offset leaves no book pages")
)

var rangeRe = regexp.MustCompile(`^\d+-\d+$`)

// PageRange is an inclusive range of book pages.
type PageRange struct {
	Start int
	End   int
}

// String renders the range in its "start-end" form.
func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Len returns the number of pages covered, zero for reversed ranges.
func (r PageRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// ParseRange parses a "start-end" page range. Surrounding whitespace is
// ignored; anything else that is not two unsigned integers joined by a dash
// is rejected. Reversed ranges are accepted here.
func ParseRange(text string) (PageRange, error) {
	s := strings.TrimSpace(text)
	if !rangeRe.MatchString(s) {
		return PageRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, text)
	}
	startStr, endStr, _ := strings.Cut(s, "-")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, text, err)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return PageRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidRange, text, err)
	}
	return PageRange{Start: start, End: end}, nil
}
