package sheets

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/handiism/sheets-exporter/internal/model"
)

// ErrMissingDocumentID is returned when a URL has no /spreadsheets/d/<id> segment.
//
// This typically occurs when:
//   - The URL points at a different Google product or the drive listing
//   - The URL was truncated while copying
//
// The error is terminal for the current action; the same URL will never
// yield a document id.
var ErrMissingDocumentID = errors.New("could not extract sheet ID from URL")

var (
	documentIDPattern = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)
	gidPattern        = regexp.MustCompile(`(?:^|[?&#])gid=([0-9]+)`)
	bareIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)
)

// ParseReference extracts a SheetReference from a spreadsheet page URL.
//
// The document id is the token following /spreadsheets/d/. The subsheet id
// is read from a gid parameter:
//  1. Query string (?gid=N or &gid=N) takes precedence
//  2. Fragment (#gid=N) is used otherwise
//  3. "0" when neither is present
//
// A bare document id (at least 20 id characters and nothing else) is also
// accepted so command-line users can skip the full URL.
//
// Returns ErrMissingDocumentID if no document id can be found.
//
// Example:
//
//	ref, err := ParseReference("https://docs.google.com/spreadsheets/d/abc123XYZ_-/edit?gid=42")
//	// ref.DocumentID == "abc123XYZ_-", ref.SubsheetID == "42"
func ParseReference(pageURL string) (model.SheetReference, error) {
	pageURL = strings.TrimSpace(pageURL)

	if bareIDPattern.MatchString(pageURL) {
		return model.NewSheetReference(pageURL, ""), nil
	}

	match := documentIDPattern.FindStringSubmatch(pageURL)
	if match == nil {
		return model.SheetReference{}, ErrMissingDocumentID
	}

	return model.NewSheetReference(match[1], extractGID(pageURL)), nil
}

// extractGID returns the gid from the query string, then the fragment.
//
// Falls back to a regexp scan of the raw string when the URL does not parse,
// so inputs with stray characters still yield a gid.
func extractGID(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return scanGID(pageURL)
	}

	if gid := scanGID(u.RawQuery); gid != "" {
		return gid
	}
	return scanGID(u.Fragment)
}

func scanGID(s string) string {
	match := gidPattern.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	return match[1]
}
