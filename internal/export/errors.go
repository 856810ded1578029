package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/handiism/sheets-exporter/internal/validate"
)

// Failure classes recorded in DownloadOutcome.Err. Use errors.Is to test.
var (
	// ErrTransport wraps network-level failures: DNS, refused or reset
	// connections, timeouts and cancellation.
	ErrTransport = errors.New("transport error")

	// ErrAccessDenied is returned when the endpoint served an error page
	// with a success status.
	ErrAccessDenied = validate.ErrAccessDenied

	// ErrEmptyOrInvalidResponse is returned when the body does not look like
	// an export.
	ErrEmptyOrInvalidResponse = validate.ErrEmptyOrInvalidResponse

	// ErrSave wraps failures writing the payload to the Saver.
	ErrSave = errors.New("save failed")

	// ErrMissingEndpoint is returned by FetchAll for a format absent from
	// the endpoint set.
	ErrMissingEndpoint = errors.New("no endpoint for format")
)

// HTTPError is returned when the endpoint answers with a non-2xx status.
//
// Use errors.As to extract the status:
//
//	var httpErr *HTTPError
//	if errors.As(outcome.Err, &httpErr) && httpErr.Status == http.StatusNotFound {
//	    fmt.Println("sheet does not exist")
//	}
type HTTPError struct {
	Status     int
	StatusText string
}

func (e *HTTPError) Error() string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, text)
}

// statusText strips the numeric prefix from a status line like "404 Not Found".
func statusText(code int, status string) string {
	prefix := fmt.Sprintf("%d ", code)
	if len(status) > len(prefix) && status[:len(prefix)] == prefix {
		return status[len(prefix):]
	}
	if status != "" {
		return status
	}
	return http.StatusText(code)
}
