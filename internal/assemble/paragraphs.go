package assemble

import (
	"strings"
)

// Paragraphs converts plain page text to XHTML paragraphs. Runs of
// non-blank lines separated by blank lines become one <p>, with the lines
// joined by a single space.
func Paragraphs(text string) string {
	var sb strings.Builder
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		sb.WriteString("<p>")
		sb.WriteString(EscapeXML(strings.Join(current, " ")))
		sb.WriteString("</p>\n")
		current = current[:0]
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the five XML special characters.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
