package epub

import (
	"fmt"
	"strings"
)

// generateNavigation creates the nav.xhtml navigation document.
func (b *Builder) generateNavigation() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="%s" lang="%s">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>%s</h1>
    <ol>
`, escapeXML(b.book.Language), escapeXML(b.book.Language), escapeXML(b.book.Title), escapeXML(b.book.Title))

	for _, ch := range b.chapters {
		fmt.Fprintf(&sb, "      <li><a href=\"chapters/%s.xhtml\">%s</a></li>\n", ch.ID, escapeXML(ch.Title))
	}

	sb.WriteString(`    </ol>
  </nav>
</body>
</html>
`)
	return sb.String()
}

// generateNCX creates the toc.ncx for ePub 2 reading systems.
func (b *Builder) generateNCX() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:%s"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle>
    <text>%s</text>
  </docTitle>
  <navMap>
`, escapeXML(b.book.ID), escapeXML(b.book.Title))

	for i, ch := range b.chapters {
		fmt.Fprintf(&sb, "    <navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", i+1, i+1)
		fmt.Fprintf(&sb, "      <navLabel><text>%s</text></navLabel>\n", escapeXML(ch.Title))
		fmt.Fprintf(&sb, "      <content src=\"chapters/%s.xhtml\"/>\n", ch.ID)
		sb.WriteString("    </navPoint>\n")
	}

	sb.WriteString(`  </navMap>
</ncx>
`)
	return sb.String()
}
