package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func testBuilder() *Builder {
	return NewBuilder(
		Book{ID: "3f1c6c1e-0000-4000-8000-000000000001", Title: "Cuentos & Leyendas", Language: "es"},
		[]Chapter{
			{Title: "Introduction", Body: "<p>Primera página.</p>\n"},
			{Title: "El <río>", Body: "<p>Agua.</p>\n<p>Más agua.</p>\n"},
			{Title: "Appendices", Body: "<p>Notas.</p>\n"},
		},
	)
}

func openArchive(t *testing.T, b *Builder) *zip.Reader {
	t.Helper()
	buf, err := b.BuildToBuffer()
	if err != nil {
		t.Fatalf("BuildToBuffer: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	return zr
}

func readEntry(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestBuilder_MimetypeFirstAndStored(t *testing.T) {
	zr := openArchive(t, testBuilder())

	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Fatalf("expected first entry mimetype, got %q", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("expected mimetype stored uncompressed, got method %d", first.Method)
	}
	if got := readEntry(t, zr, "mimetype"); got != "application/epub+zip" {
		t.Errorf("expected application/epub+zip, got %q", got)
	}
}

func TestBuilder_SpineFollowsChapterOrder(t *testing.T) {
	zr := openArchive(t, testBuilder())
	opf := readEntry(t, zr, "OEBPS/content.opf")

	ids := []string{"ch_001", "ch_002", "ch_003"}
	last := -1
	for _, id := range ids {
		idx := strings.Index(opf, `<itemref idref="`+id+`"/>`)
		if idx < 0 {
			t.Fatalf("spine missing %s", id)
		}
		if idx < last {
			t.Errorf("expected %s after previous itemref", id)
		}
		last = idx
	}
	if !strings.Contains(opf, "<dc:title>Cuentos &amp; Leyendas</dc:title>") {
		t.Errorf("expected escaped title in package document")
	}
	if !strings.Contains(opf, "<dc:language>es</dc:language>") {
		t.Errorf("expected language es in package document")
	}
}

func TestBuilder_ContainsEveryPart(t *testing.T) {
	zr := openArchive(t, testBuilder())

	want := []string{
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/nav.xhtml",
		"OEBPS/toc.ncx",
		"OEBPS/styles/style.css",
		"OEBPS/chapters/ch_001.xhtml",
		"OEBPS/chapters/ch_002.xhtml",
		"OEBPS/chapters/ch_003.xhtml",
	}
	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, n := range want {
		if !names[n] {
			t.Errorf("missing entry %s", n)
		}
	}
}

func TestBuilder_ChapterDocument(t *testing.T) {
	zr := openArchive(t, testBuilder())
	doc := readEntry(t, zr, "OEBPS/chapters/ch_002.xhtml")

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse chapter: %v", err)
	}

	var heading string
	var paragraphs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.FirstChild != nil {
			switch n.Data {
			case "h1":
				heading = n.FirstChild.Data
			case "p":
				paragraphs = append(paragraphs, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if heading != "El <río>" {
		t.Errorf("expected heading %q, got %q", "El <río>", heading)
	}
	if len(paragraphs) != 2 || paragraphs[0] != "Agua." || paragraphs[1] != "Más agua." {
		t.Errorf("unexpected paragraphs: %v", paragraphs)
	}
}

func TestBuilder_NavigationListsChapters(t *testing.T) {
	zr := openArchive(t, testBuilder())
	nav := readEntry(t, zr, "OEBPS/nav.xhtml")

	for _, want := range []string{
		`<a href="chapters/ch_001.xhtml">Introduction</a>`,
		`<a href="chapters/ch_002.xhtml">El &lt;río&gt;</a>`,
		`<a href="chapters/ch_003.xhtml">Appendices</a>`,
	} {
		if !strings.Contains(nav, want) {
			t.Errorf("nav missing %q", want)
		}
	}

	ncx := readEntry(t, zr, "OEBPS/toc.ncx")
	if strings.Count(ncx, "<navPoint ") != 3 {
		t.Errorf("expected 3 navPoints in ncx")
	}
}

func TestNewBuilder_GeneratesIdentifier(t *testing.T) {
	b := NewBuilder(Book{Title: "T"}, nil)
	if b.book.ID == "" {
		t.Error("expected generated identifier")
	}
	if b.book.Language != "es" {
		t.Errorf("expected default language es, got %q", b.book.Language)
	}
}
