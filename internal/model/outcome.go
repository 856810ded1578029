package model

import "fmt"

// EndpointSet maps each format to its fully qualified export URL.
//
// An EndpointSet is derived deterministically from a SheetReference and is
// treated as immutable once built.
type EndpointSet map[Format]string

// URL returns the endpoint for a format and whether it is present.
func (s EndpointSet) URL(f Format) (string, bool) {
	u, ok := s[f]
	return u, ok
}

// DownloadOutcome is the result of a single fetch-and-save attempt.
//
// Exactly one of Payload (on success) or Err/ErrorMessage (on failure) is
// populated. Outcomes are produced per attempt and are not retained by the
// exporter.
type DownloadOutcome struct {
	// Format is the requested export format.
	Format Format

	// FileName is the name the payload was (or would have been) saved under.
	FileName string

	// URL is the endpoint that was fetched.
	URL string

	// Succeeded is true when the payload was fetched, validated and saved.
	Succeeded bool

	// Payload is the response body. Present only when Succeeded is true.
	Payload []byte

	// ContentType is the media type the payload was saved with.
	ContentType string

	// Err is the failure cause. Use errors.Is / errors.As to classify it.
	Err error

	// ErrorMessage is a human-readable description of Err.
	ErrorMessage string
}

// Succeed builds a successful outcome.
func Succeed(f Format, fileName, url, contentType string, payload []byte) DownloadOutcome {
	return DownloadOutcome{
		Format:      f,
		FileName:    fileName,
		URL:         url,
		Succeeded:   true,
		Payload:     payload,
		ContentType: contentType,
	}
}

// Fail builds a failed outcome from err.
func Fail(f Format, fileName, url string, err error) DownloadOutcome {
	return DownloadOutcome{
		Format:       f,
		FileName:     fileName,
		URL:          url,
		Err:          err,
		ErrorMessage: err.Error(),
	}
}

// BatchResult aggregates the outcomes of an "export all" run.
type BatchResult struct {
	// ID identifies the batch in progress messages.
	ID string

	// Outcomes holds one entry per requested format, in request order.
	Outcomes []DownloadOutcome

	// Succeeded is the number of successful outcomes.
	Succeeded int

	// Total is the number of requested formats.
	Total int
}

// Add records an outcome and updates the success count.
func (b *BatchResult) Add(o DownloadOutcome) {
	b.Outcomes = append(b.Outcomes, o)
	if o.Succeeded {
		b.Succeeded++
	}
}

// Ratio returns the success ratio as "<succeeded>/<total>".
func (b BatchResult) Ratio() string {
	return fmt.Sprintf("%d/%d", b.Succeeded, b.Total)
}

// Failed returns the outcomes that did not succeed.
func (b BatchResult) Failed() []DownloadOutcome {
	var failed []DownloadOutcome
	for _, o := range b.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}
