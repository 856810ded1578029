// Package export fetches Google Sheets exports and stores them.
//
// # Exporter
//
// The Exporter runs the fetch pipeline for one or more formats:
//
//  1. GET the export endpoint through the configured client and session
//  2. Reject non-2xx statuses
//  3. Validate the body (error page and length heuristics by default)
//  4. Save the payload through an ioutils.Saver
//
// # Basic Usage
//
//	exporter := export.NewExporter(client, saver,
//	    export.WithProgress(func(event export.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    }),
//	)
//
//	outcome := exporter.ExportFormat(ctx, ref, model.FormatCSV)
//	if !outcome.Succeeded {
//	    fmt.Println("Failed:", outcome.ErrorMessage)
//	}
//
//	result := exporter.Export(ctx, ref) // csv, xlsx, tsv, html
//	fmt.Printf("Downloaded %s formats successfully!\n", result.Ratio())
//
// # Concurrency
//
// One request is in flight per Exporter at any time. Batches run strictly
// in order and wait on a Pacer between formats:
//   - FixedDelay: a constant pause (500ms by default)
//   - RateLimit: a token bucket from golang.org/x/time/rate
//   - NoDelay: no pause
//
// # Failures
//
// Failures never escape as errors. Each is recorded in the outcome and can
// be classified with errors.Is against ErrTransport, ErrAccessDenied,
// ErrEmptyOrInvalidResponse, ErrSave and ErrMissingEndpoint, or with
// errors.As against *HTTPError. There is no retry.
package export
