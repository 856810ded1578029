package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultFileNamePattern names exports sheet_export_<unix millis>.<format>.
const DefaultFileNamePattern = "sheet_export_{timestamp}"

// ExportFileName computes the file name for an export.
//
// The pattern supports placeholders that are replaced with actual values:
//   - {timestamp} - Unix time in milliseconds
//   - {document} - Document id
//   - {gid} - Subsheet id
//   - {format} - Format tag
//
// The format's extension is always appended and invalid filename characters
// are replaced with underscores. An empty pattern uses DefaultFileNamePattern.
//
// Example:
//
//	name := ExportFileName(time.UnixMilli(1700000000000), ref, FormatCSV, "")
//	// name == "sheet_export_1700000000000.csv"
func ExportFileName(ts time.Time, ref SheetReference, f Format, pattern string) string {
	if pattern == "" {
		pattern = DefaultFileNamePattern
	}

	fileName := pattern
	fileName = strings.ReplaceAll(fileName, "{timestamp}", strconv.FormatInt(ts.UnixMilli(), 10))
	fileName = strings.ReplaceAll(fileName, "{document}", ref.DocumentID)
	fileName = strings.ReplaceAll(fileName, "{gid}", ref.SubsheetID)
	fileName = strings.ReplaceAll(fileName, "{format}", string(f))
	fileName = sanitizeFileName(fileName)

	// Limit length for cross-platform compatibility, leaving room for the extension
	fileName = truncateBytes(fileName, maxFileNameBytes)

	return fileName + f.Extension()
}

// maxFileNameBytes caps the name before the extension is appended.
const maxFileNameBytes = 200

// truncateBytes shortens s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	repeatedSpaces   = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Surrounding whitespace is removed
func sanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
