package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/handiism/sheets-exporter/internal/http"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
	"github.com/handiism/sheets-exporter/internal/validate"
)

// DefaultContentType is used when the endpoint sends no Content-Type.
const DefaultContentType = "text/plain"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns a short lowercase name for the level.
func (l ProgressLevel) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ProgressEvent represents an export progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithValidator replaces the default heuristic validator.
func WithValidator(v validate.Validator) Option {
	return func(e *Exporter) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithPacer replaces the default FixedDelay(DefaultBatchDelay) pacer.
func WithPacer(p Pacer) Option {
	return func(e *Exporter) {
		if p != nil {
			e.pacer = p
		}
	}
}

// WithBuilder sets the endpoint builder used by Export and ExportFormat.
func WithBuilder(b *sheets.Builder) Option {
	return func(e *Exporter) {
		if b != nil {
			e.builder = b
		}
	}
}

// WithFileNamePattern sets the pattern passed to model.ExportFileName.
func WithFileNamePattern(pattern string) Option {
	return func(e *Exporter) {
		e.pattern = pattern
	}
}

// WithClock overrides the time source used for file name timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithProgress registers a callback for progress events.
//
// The callback is invoked synchronously from the goroutine running the
// export and must not block.
func WithProgress(onProgress func(ProgressEvent)) Option {
	return func(e *Exporter) {
		e.onProgress = onProgress
	}
}

// WithBatchProgress registers a callback invoked after each format of a
// batch completes, with the number of recorded outcomes and the batch size.
func WithBatchProgress(onBatch func(done, total int)) Option {
	return func(e *Exporter) {
		e.onBatch = onBatch
	}
}

// Exporter fetches sheet exports and stores them through a Saver.
//
// At most one export request is in flight per Exporter. Concurrent callers
// of FetchOne and FetchAll queue on a single slot; within a batch, formats
// are fetched strictly in order with the Pacer awaited between them.
//
// Example:
//
//	saver, _ := ioutils.OpenSaver(ctx, "~/Downloads")
//	defer saver.Close()
//
//	exporter := NewExporter(http.NewClient(http.DefaultOptions()), saver,
//	    WithProgress(func(ev ProgressEvent) { fmt.Println(ev.Message) }),
//	)
//
//	ref, _ := sheets.ParseReference(pageURL)
//	result := exporter.Export(ctx, ref)
//	fmt.Printf("Downloaded %s formats successfully!\n", result.Ratio())
type Exporter struct {
	client    *http.Client
	saver     ioutils.Saver
	validator validate.Validator
	pacer     Pacer
	builder   *sheets.Builder
	pattern   string
	now       func() time.Time

	inFlight   *semaphore.Weighted
	onProgress func(ProgressEvent)
	onBatch    func(done, total int)
}

// NewExporter creates an Exporter that downloads with client and writes
// payloads to saver.
func NewExporter(client *http.Client, saver ioutils.Saver, opts ...Option) *Exporter {
	e := &Exporter{
		client:    client,
		saver:     saver,
		validator: validate.Default(),
		pacer:     FixedDelay(DefaultBatchDelay),
		builder:   sheets.NewBuilder(sheets.DefaultHost),
		pattern:   model.DefaultFileNamePattern,
		now:       time.Now,
		inFlight:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchOne downloads url, validates the body as format f and saves it
// under fileName.
//
// FetchOne never returns an error: every failure is reported in the
// outcome. The failure cause in outcome.Err is one of:
//   - ErrTransport, wrapping the network error
//   - *HTTPError for a non-2xx status
//   - ErrAccessDenied or ErrEmptyOrInvalidResponse from validation
//   - ErrSave, wrapping the Saver error
//   - ctx.Err() when ctx is done before the request starts
func (e *Exporter) FetchOne(ctx context.Context, url, fileName string, f model.Format) model.DownloadOutcome {
	if err := e.inFlight.Acquire(ctx, 1); err != nil {
		return e.fail(f, fileName, url, fmt.Errorf("export cancelled: %w", err))
	}
	defer e.inFlight.Release(1)

	return e.fetch(ctx, url, fileName, f)
}

// FetchAll downloads every format in formats from endpoints, sequentially
// and in order. With no formats, model.BatchFormats is used.
//
// All file names in the batch share one timestamp. A format without an
// endpoint is recorded as failed with ErrMissingEndpoint. When ctx is done
// the remaining formats are recorded as failed without being requested, so
// result.Total always equals the number of formats.
func (e *Exporter) FetchAll(ctx context.Context, endpoints model.EndpointSet, formats ...model.Format) model.BatchResult {
	return e.fetchAll(ctx, model.SheetReference{}, endpoints, formats)
}

// Export builds the endpoints for ref and runs FetchAll over them.
//
// File name placeholders {document} and {gid} are filled from ref.
func (e *Exporter) Export(ctx context.Context, ref model.SheetReference, formats ...model.Format) model.BatchResult {
	return e.fetchAll(ctx, ref, e.builder.Build(ref), formats)
}

// ExportFormat exports a single format of ref under a freshly timestamped
// file name.
func (e *Exporter) ExportFormat(ctx context.Context, ref model.SheetReference, f model.Format) model.DownloadOutcome {
	fileName := model.ExportFileName(e.now(), ref, f, e.pattern)
	return e.FetchOne(ctx, e.builder.ExportURL(ref, f), fileName, f)
}

func (e *Exporter) fetchAll(ctx context.Context, ref model.SheetReference, endpoints model.EndpointSet, formats []model.Format) model.BatchResult {
	if len(formats) == 0 {
		formats = model.BatchFormats()
	}

	result := model.BatchResult{
		ID:    uuid.NewString(),
		Total: len(formats),
	}
	timestamp := e.now()

	e.progress(ProgressEvent{Message: "Downloading all formats...", Level: LevelInfo})
	e.progress(ProgressEvent{Message: fmt.Sprintf("Batch %s: %d formats", result.ID, len(formats)), Level: LevelVerbose})

	for i, f := range formats {
		fileName := model.ExportFileName(timestamp, ref, f, e.pattern)
		url, ok := endpoints.URL(f)

		if err := e.pace(ctx, i); err != nil {
			e.cancelRemaining(&result, ref, endpoints, formats[i:], timestamp, err)
			e.batchProgress(result)
			break
		}

		if ok {
			result.Add(e.FetchOne(ctx, url, fileName, f))
		} else {
			result.Add(e.fail(f, fileName, "", fmt.Errorf("%w: %s", ErrMissingEndpoint, f)))
		}
		e.batchProgress(result)
	}

	level := LevelSuccess
	if result.Succeeded < result.Total {
		level = LevelWarning
	}
	e.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded %s formats successfully!", result.Ratio()), Level: level})

	return result
}

// pace waits on the pacer before the i-th request of a batch.
func (e *Exporter) pace(ctx context.Context, i int) error {
	if i > 0 {
		return e.pacer.Wait(ctx)
	}
	if s, ok := e.pacer.(batchStarter); ok {
		return s.Start(ctx)
	}
	return nil
}

// cancelRemaining records every format in rest as failed with cause.
func (e *Exporter) cancelRemaining(result *model.BatchResult, ref model.SheetReference, endpoints model.EndpointSet, rest []model.Format, ts time.Time, cause error) {
	e.progress(ProgressEvent{Message: fmt.Sprintf("Batch %s cancelled: %v", result.ID, cause), Level: LevelWarning})
	for _, f := range rest {
		url, _ := endpoints.URL(f)
		result.Add(model.Fail(f, model.ExportFileName(ts, ref, f, e.pattern), url, fmt.Errorf("export cancelled: %w", cause)))
	}
}

func (e *Exporter) fetch(ctx context.Context, url, fileName string, f model.Format) model.DownloadOutcome {
	tag := strings.ToUpper(string(f))
	e.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %s...", tag), Level: LevelInfo})
	e.progress(ProgressEvent{Message: fmt.Sprintf("Attempting to download %s from: %s", f, url), Level: LevelVerbose})

	resp, err := e.client.Get(ctx, url, nil)
	if err != nil {
		return e.fail(f, fileName, url, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	if !resp.OK() {
		return e.fail(f, fileName, url, &HTTPError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp.StatusCode, resp.Status),
		})
	}

	e.progress(ProgressEvent{Message: fmt.Sprintf("Response content type: %s", resp.ContentType), Level: LevelVerbose})

	if err := e.validator.Validate(f, resp.ContentType, resp.Body); err != nil {
		return e.fail(f, fileName, url, err)
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	if err := e.saver.Save(ctx, fileName, contentType, resp.Body); err != nil {
		return e.fail(f, fileName, url, fmt.Errorf("%w: %w", ErrSave, err))
	}

	e.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded %s successfully!", tag), Level: LevelSuccess})
	e.progress(ProgressEvent{Message: fmt.Sprintf("Saved %s (%d bytes)", fileName, len(resp.Body)), Level: LevelVerbose})

	return model.Succeed(f, fileName, url, contentType, resp.Body)
}

func (e *Exporter) fail(f model.Format, fileName, url string, err error) model.DownloadOutcome {
	e.progress(ProgressEvent{Message: fmt.Sprintf("Failed to download %s: %v", f, err), Level: LevelError})
	return model.Fail(f, fileName, url, err)
}

func (e *Exporter) batchProgress(result model.BatchResult) {
	if e.onBatch != nil {
		e.onBatch(len(result.Outcomes), result.Total)
	}
}

func (e *Exporter) progress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}

// IsCancelled reports whether an outcome failed because its context ended.
func IsCancelled(o model.DownloadOutcome) bool {
	return errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded)
}
