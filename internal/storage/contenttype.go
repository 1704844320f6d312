package storage

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	".epub": "application/epub+zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".json": "application/json",
	".pdf":  "application/pdf",
}

// ContentType returns the MIME type for an artifact key.
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
