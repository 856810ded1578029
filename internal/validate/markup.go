package validate

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/handiism/sheets-exporter/internal/model"
)

// sniffLimit caps how much of a body is tokenized when looking for markup.
const sniffLimit = 64 << 10

// DefaultDeniedTitles are page-title fragments of the error and sign-in
// pages served by the export endpoint. Matching is case-insensitive.
var DefaultDeniedTitles = []string{
	"sign in",
	"error",
	"not found",
	"access denied",
	"you need access",
	"unable to open",
}

// Markup detects HTML error pages by parsing the body instead of scanning
// for substrings.
//
// Markup rejects with ErrAccessDenied when:
//   - A non-HTML export is served with an HTML content type
//   - A non-HTML export's body is an HTML document (doctype or <html>/<head> first)
//   - An HTML export's <title> contains one of DeniedTitles
//
// Bodies that start with non-markup text (CSV rows, ZIP or PDF signatures)
// are passed through.
type Markup struct {
	// DeniedTitles overrides DefaultDeniedTitles when non-empty.
	DeniedTitles []string
}

// Validate implements Validator.
func (m Markup) Validate(f model.Format, contentType string, body []byte) error {
	if f != model.FormatHTML && isHTMLMediaType(contentType) {
		return fmt.Errorf("%w: %s served for %s export", ErrAccessDenied, contentType, f)
	}

	title, isDocument := sniffDocument(body)
	if !isDocument {
		return nil
	}

	if f != model.FormatHTML {
		return fmt.Errorf("%w: HTML document served for %s export", ErrAccessDenied, f)
	}

	denied := m.DeniedTitles
	if len(denied) == 0 {
		denied = DefaultDeniedTitles
	}
	lower := strings.ToLower(title)
	for _, fragment := range denied {
		if strings.Contains(lower, strings.ToLower(fragment)) {
			return fmt.Errorf("%w: page title %q", ErrAccessDenied, title)
		}
	}

	return nil
}

func isHTMLMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// sniffDocument reports whether body is an HTML document and returns its
// <title> text, if any.
//
// A body is a document when its first meaningful token is an HTML doctype
// or an <html> or <head> start tag. Leading whitespace and comments are
// skipped; any other leading text means the body is not markup.
func sniffDocument(body []byte) (title string, isDocument bool) {
	if len(body) > sniffLimit {
		body = body[:sniffLimit]
	}

	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return "", false
			}
			return strings.TrimSpace(title), isDocument

		case html.DoctypeToken:
			doctype := strings.ToLower(strings.TrimSpace(string(z.Text())))
			if strings.HasPrefix(doctype, "html") {
				isDocument = true
			}

		case html.CommentToken:
			continue

		case html.TextToken:
			text := z.Text()
			if inTitle {
				title += string(text)
				continue
			}
			if !isDocument && len(bytes.TrimSpace(text)) > 0 {
				return "", false
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			if !isDocument {
				if tag != atom.Html && tag != atom.Head {
					return "", false
				}
				isDocument = true
			}
			switch tag {
			case atom.Title:
				inTitle = true
			case atom.Body:
				return strings.TrimSpace(title), true
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title, atom.Head:
				return strings.TrimSpace(title), isDocument
			}
		}
	}
}
