// Package epub writes EPUB 3 archives from assembled chapters.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Book contains the metadata needed for epub generation.
type Book struct {
	ID        string // stable identifier; a random UUID is used when empty
	Title     string
	Author    string
	Language  string // BCP 47 tag (e.g., "es")
	Publisher string
	Modified  time.Time
}

// Chapter is one spine document.
type Chapter struct {
	ID    string // manifest id; generated from the position when empty
	Title string
	Body  string // XHTML body content
}

// Builder creates ePub 3.0 files. Chapters are written in the order given,
// which is both the spine and the navigation order.
type Builder struct {
	book     Book
	chapters []Chapter
}

// NewBuilder creates a new epub builder.
func NewBuilder(book Book, chapters []Chapter) *Builder {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if book.Language == "" {
		book.Language = "es"
	}
	if book.Modified.IsZero() {
		book.Modified = time.Now()
	}
	chs := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("ch_%03d", i+1)
		}
		chs[i] = ch
	}
	return &Builder{book: book, chapters: chs}
}

// BuildToBuffer generates the epub and returns it as a byte buffer.
func (b *Builder) BuildToBuffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := b.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteTo writes the epub to a writer.
func (b *Builder) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	// mimetype must be the first entry and stored uncompressed.
	if err := b.writeMimetype(zw); err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", b.generatePackage()},
		{"OEBPS/nav.xhtml", b.generateNavigation()},
		{"OEBPS/toc.ncx", b.generateNCX()},
		{"OEBPS/styles/style.css", defaultStylesheet},
	}
	for _, f := range files {
		if err := writeEntry(zw, f.name, f.content); err != nil {
			return err
		}
	}

	for _, ch := range b.chapters {
		name := fmt.Sprintf("OEBPS/chapters/%s.xhtml", ch.ID)
		if err := writeEntry(zw, name, b.generateChapterXHTML(ch)); err != nil {
			return fmt.Errorf("failed to write chapter %s: %w", ch.ID, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (b *Builder) writeMimetype(zw *zip.Writer) error {
	header := &zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create mimetype: %w", err)
	}
	_, err = w.Write([]byte("application/epub+zip"))
	return err
}

func writeEntry(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	_, err = io.WriteString(w, content)
	return err
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const defaultStylesheet = `body {
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
  text-align: justify;
}

h1 {
  font-size: 1.6em;
  text-align: center;
  margin: 2em 0 1.5em;
}

p {
  margin: 0.5em 0;
  text-indent: 1.5em;
}

h1 + p {
  text-indent: 0;
}
`
