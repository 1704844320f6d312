package toc

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_PreservesOrder(t *testing.T) {
	raw := "Second: 30-40\r\n\n   \nFirst: 1-29\nThird:41-50\n"
	chapters, err := Validate(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Chapter{
		{Title: "Second", Pages: "30-40"},
		{Title: "First", Pages: "1-29"},
		{Title: "Third", Pages: "41-50"},
	}
	if len(chapters) != len(want) {
		t.Fatalf("expected %d chapters, got %d", len(want), len(chapters))
	}
	for i := range want {
		if chapters[i] != want[i] {
			t.Errorf("chapter[%d]: expected %+v, got %+v", i, want[i], chapters[i])
		}
	}
}

func TestValidate_Empty(t *testing.T) {
	chapters, err := Validate("\n  \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 0 {
		t.Errorf("expected no chapters, got %d", len(chapters))
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		mention string
	}{
		{"no colon", "Chapter one 1-10", "Chapter one 1-10"},
		{"two colons", "Part: One: 1-10", "Part: One: 1-10"},
		{"empty title", " : 1-10", ": 1-10"},
		{"bad range", "Chapter: 1_10", "1_10"},
		{"reversed range", "Chapter: 10-1", "10-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chapters, err := Validate("Good: 1-5\n" + tt.raw + "\nAlso good: 6-9")
			if !errors.Is(err, ErrInvalidLine) {
				t.Fatalf("expected ErrInvalidLine, got %v", err)
			}
			if chapters != nil {
				t.Errorf("expected no chapters on failure, got %v", chapters)
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("expected error to mention %q, got %q", tt.mention, err.Error())
			}
		})
	}
}
