// Package toolsutil holds helpers shared by the tool handler packages.
package toolsutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Package-level logger for tools, discarded unless the host wires one in.
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// SetLogger sets a custom logger for the tool packages.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the package logger.
func GetLogger() *slog.Logger {
	return logger
}

// Sentinel errors shared across handlers.
var (
	ErrFileNotFound  = errors.New("file not found")
	ErrAmbiguousPath = errors.New("ambiguous path")
	ErrReadRequired  = errors.New("file has not been read")
	ErrNotAbsolute   = errors.New("path must be absolute")
)

// Text formatting limits for the read tool.
const (
	DefaultLineLimit = 2000
	MaxLineChars     = 2000
)

// FormatLines renders content with 1-based line numbers starting at offset,
// returning at most limit lines. Lines longer than MaxLineChars are hard
// truncated.
func FormatLines(content string, offset, limit int) string {
	if offset < 1 {
		offset = 1
	}
	if limit < 1 {
		limit = DefaultLineLimit
	}
	lines := strings.Split(content, "\n")
	if offset > len(lines) {
		return ""
	}
	end := offset - 1 + limit
	if end > len(lines) {
		end = len(lines)
	}
	var b strings.Builder
	for i := offset - 1; i < end; i++ {
		line := lines[i]
		if len(line) > MaxLineChars {
			line = line[:MaxLineChars]
		}
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// DataURI encodes binary content as a base64 data URI.
func DataURI(mimeType, encoded string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
}

// ImageMimeType returns the mime type for a known image extension, or "".
func ImageMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	default:
		return ""
	}
}

// EstimatePDFPages estimates a PDF's page count by counting page-object
// markers in the raw byte stream. Cheap and approximate, but good enough to
// demand a page range for large documents.
func EstimatePDFPages(data []byte) int {
	count := countMarkers(data, "/Type /Page") + countMarkers(data, "/Type/Page")
	if count == 0 && len(data) > 0 {
		return 1
	}
	return count
}

// countMarkers counts marker occurrences not followed by 's', so page-tree
// nodes (/Type /Pages) are not counted as pages.
func countMarkers(data []byte, marker string) int {
	count := 0
	s := string(data)
	for idx := strings.Index(s, marker); idx >= 0; idx = strings.Index(s, marker) {
		rest := s[idx+len(marker):]
		if !strings.HasPrefix(rest, "s") {
			count++
		}
		s = rest
	}
	return count
}
