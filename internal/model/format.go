package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned when a format tag is not one of the supported
// export formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export format tag understood by the export endpoint.
//
// The string value is sent verbatim as the format query parameter and is
// also used as the saved file's extension.
type Format string

const (
	// FormatCSV exports the selected tab as comma-separated values.
	FormatCSV Format = "csv"

	// FormatTSV exports the selected tab as tab-separated values.
	FormatTSV Format = "tsv"

	// FormatXLSX exports the whole document as an Excel workbook.
	FormatXLSX Format = "xlsx"

	// FormatODS exports the whole document as an OpenDocument spreadsheet.
	FormatODS Format = "ods"

	// FormatPDF exports the selected tab as a PDF document.
	FormatPDF Format = "pdf"

	// FormatHTML exports the selected tab as an HTML page.
	FormatHTML Format = "html"
)

// AllFormats returns every supported format in endpoint-set order.
func AllFormats() []Format {
	return []Format{FormatCSV, FormatTSV, FormatXLSX, FormatODS, FormatPDF, FormatHTML}
}

// BatchFormats returns the formats downloaded by an "export all" action,
// in download order.
func BatchFormats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatTSV, FormatHTML}
}

// ParseFormat converts a user-supplied tag to a Format.
//
// Matching is case-insensitive and ignores surrounding whitespace and a
// leading dot, so "CSV", " csv " and ".csv" all yield FormatCSV.
func ParseFormat(s string) (Format, error) {
	tag := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for _, f := range AllFormats() {
		if string(f) == tag {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats parses a list of tags, failing on the first unknown one.
func ParseFormats(tags []string) ([]Format, error) {
	formats := make([]Format, 0, len(tags))
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		f, err := ParseFormat(tag)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Label returns the human-readable button label for the format.
func (f Format) Label() string {
	switch f {
	case FormatXLSX:
		return "Excel"
	default:
		return strings.ToUpper(string(f))
	}
}

func (f Format) String() string {
	return string(f)
}
