// Package docxbook exports assembled chapters as a Word document.
package docxbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Section is one chapter to export. Body holds the XHTML paragraphs produced
// by the assembler.
type Section struct {
	Title string
	Body  string
}

const (
	titleSize   = "48"
	headingSize = "32"
)

// Write renders the book title followed by every section heading and its
// paragraphs, in order.
func Write(w io.Writer, title string, sections []Section) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().Justification("center").AddText(title).Bold().Size(titleSize)

	for _, s := range sections {
		paras, err := Paragraphs(s.Body)
		if err != nil {
			return fmt.Errorf("section %q: %w", s.Title, err)
		}
		doc.AddParagraph().AddText(s.Title).Bold().Size(headingSize)
		for _, p := range paras {
			doc.AddParagraph().AddText(p)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// Paragraphs extracts the text of each <p> element of an XHTML fragment,
// with entities decoded.
func Paragraphs(body string) ([]string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(body), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}

	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if t := strings.TrimSpace(textContent(n)); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out, nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
