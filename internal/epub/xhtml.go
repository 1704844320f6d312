package epub

import (
	"fmt"
	"strings"
)

// generateChapterXHTML wraps a chapter body in an XHTML document with the
// chapter title as heading.
func (b *Builder) generateChapterXHTML(ch Chapter) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="%s" lang="%s">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="../styles/style.css"/>
</head>
<body>
<h1>%s</h1>
`, escapeXML(b.book.Language), escapeXML(b.book.Language), escapeXML(ch.Title), escapeXML(ch.Title))

	sb.WriteString(ch.Body)
	if !strings.HasSuffix(ch.Body, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("</body>\n</html>\n")

	return sb.String()
}
