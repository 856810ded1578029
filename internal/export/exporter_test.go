package export

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/handiism/sheets-exporter/internal/http"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
	"github.com/handiism/sheets-exporter/internal/validate"
)

var csvBody = "name,qty\n" + strings.Repeat("widget,1\n", 8)

type response struct {
	status      int
	contentType string
	body        string
}

// exportServer serves canned responses keyed by the format query parameter
// and records the formats it was asked for.
type exportServer struct {
	*httptest.Server

	mu        sync.Mutex
	requested []string
}

func newExportServer(t *testing.T, responses map[string]response) *exportServer {
	t.Helper()

	s := &exportServer{}
	s.Server = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		format := r.URL.Query().Get("format")

		s.mu.Lock()
		s.requested = append(s.requested, format)
		s.mu.Unlock()

		resp, ok := responses[format]
		if !ok {
			resp = response{status: nethttp.StatusOK, contentType: "text/csv", body: csvBody}
		}
		if resp.contentType == "" {
			w.Header()["Content-Type"] = nil
		} else {
			w.Header().Set("Content-Type", resp.contentType)
		}
		if resp.status != 0 {
			w.WriteHeader(resp.status)
		}
		w.Write([]byte(resp.body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *exportServer) Requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

func newMemSaver(t *testing.T) *ioutils.BlobSaver {
	t.Helper()

	saver, err := ioutils.OpenSaver(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	t.Cleanup(func() { saver.Close() })
	return saver
}

func newTestExporter(saver ioutils.Saver, host string, opts ...Option) *Exporter {
	defaults := []Option{
		WithPacer(NoDelay()),
		WithBuilder(sheets.NewBuilder(host)),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	}
	return NewExporter(http.NewClient(http.DefaultOptions()), saver, append(defaults, opts...)...)
}

func exists(t *testing.T, saver *ioutils.BlobSaver, name string) bool {
	t.Helper()

	ok, err := saver.Bucket().Exists(context.Background(), name)
	if err != nil {
		t.Fatalf("Exists(%s): %v", name, err)
	}
	return ok
}

func TestFetchOne_Success(t *testing.T) {
	server := newExportServer(t, nil)
	saver := newMemSaver(t)
	exporter := newTestExporter(saver, server.URL)

	url := server.URL + "/spreadsheets/d/abc/export?format=csv&gid=0"
	outcome := exporter.FetchOne(context.Background(), url, "out.csv", model.FormatCSV)

	if !outcome.Succeeded {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if string(outcome.Payload) != csvBody {
		t.Errorf("Payload = %q", outcome.Payload)
	}
	if outcome.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", outcome.ContentType)
	}

	got, err := saver.Bucket().ReadAll(context.Background(), "out.csv")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != csvBody {
		t.Errorf("saved %q, want %q", got, csvBody)
	}
}

func TestFetchOne_LengthBoundary(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"49 characters", strings.Repeat("a", 49), ErrEmptyOrInvalidResponse},
		{"50 characters", strings.Repeat("a", 50), nil},
		{"50 multibyte characters", strings.Repeat("é", 50), nil},
		{"empty", "", ErrEmptyOrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newExportServer(t, map[string]response{
				"csv": {contentType: "text/csv", body: tt.body},
			})
			saver := newMemSaver(t)
			exporter := newTestExporter(saver, server.URL)

			outcome := exporter.FetchOne(context.Background(), server.URL+"/x?format=csv", "x.csv", model.FormatCSV)

			if tt.wantErr == nil {
				if !outcome.Succeeded {
					t.Fatalf("expected success, got %v", outcome.Err)
				}
				return
			}
			if outcome.Succeeded {
				t.Fatal("expected failure")
			}
			if !errors.Is(outcome.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", outcome.Err, tt.wantErr)
			}
			if exists(t, saver, "x.csv") {
				t.Error("payload saved for a rejected body")
			}
		})
	}
}

func TestFetchOne_AccessDenied(t *testing.T) {
	page := "<html><head><title>Error</title></head><body>error 403 - you need permission</body></html>"
	server := newExportServer(t, map[string]response{
		"csv": {contentType: "text/html", body: page},
	})
	saver := newMemSaver(t)
	exporter := newTestExporter(saver, server.URL)

	outcome := exporter.FetchOne(context.Background(), server.URL+"/x?format=csv", "x.csv", model.FormatCSV)

	if outcome.Succeeded {
		t.Fatal("expected failure")
	}
	if !errors.Is(outcome.Err, ErrAccessDenied) {
		t.Errorf("Err = %v, want ErrAccessDenied", outcome.Err)
	}
	if outcome.ErrorMessage != "access denied - received error page" {
		t.Errorf("ErrorMessage = %q", outcome.ErrorMessage)
	}
	if exists(t, saver, "x.csv") {
		t.Error("payload saved for an error page")
	}
}

func TestFetchOne_HTTPError(t *testing.T) {
	server := newExportServer(t, map[string]response{
		"csv": {status: nethttp.StatusNotFound, contentType: "text/html", body: "not found"},
	})
	exporter := newTestExporter(newMemSaver(t), server.URL)

	outcome := exporter.FetchOne(context.Background(), server.URL+"/x?format=csv", "x.csv", model.FormatCSV)

	var httpErr *HTTPError
	if !errors.As(outcome.Err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", outcome.Err)
	}
	if httpErr.Status != nethttp.StatusNotFound {
		t.Errorf("Status = %d, want 404", httpErr.Status)
	}
	if outcome.ErrorMessage != "HTTP 404: Not Found" {
		t.Errorf("ErrorMessage = %q", outcome.ErrorMessage)
	}
}

func TestFetchOne_TransportError(t *testing.T) {
	server := newExportServer(t, nil)
	url := server.URL + "/x?format=csv"
	server.Close()

	exporter := newTestExporter(newMemSaver(t), server.URL)
	outcome := exporter.FetchOne(context.Background(), url, "x.csv", model.FormatCSV)

	if outcome.Succeeded {
		t.Fatal("expected failure")
	}
	if !errors.Is(outcome.Err, ErrTransport) {
		t.Errorf("Err = %v, want ErrTransport", outcome.Err)
	}
}

func TestFetchOne_DefaultContentType(t *testing.T) {
	server := newExportServer(t, map[string]response{
		"tsv": {body: strings.ReplaceAll(csvBody, ",", "\t")},
	})
	saver := newMemSaver(t)
	exporter := newTestExporter(saver, server.URL)

	outcome := exporter.FetchOne(context.Background(), server.URL+"/x?format=tsv", "x.tsv", model.FormatTSV)
	if !outcome.Succeeded {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if outcome.ContentType != DefaultContentType {
		t.Errorf("ContentType = %q, want %q", outcome.ContentType, DefaultContentType)
	}

	attrs, err := saver.Bucket().Attributes(context.Background(), "x.tsv")
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if !strings.HasPrefix(attrs.ContentType, DefaultContentType) {
		t.Errorf("stored ContentType = %q", attrs.ContentType)
	}
}

type saverFunc func(ctx context.Context, name, contentType string, data []byte) error

func (f saverFunc) Save(ctx context.Context, name, contentType string, data []byte) error {
	return f(ctx, name, contentType, data)
}

func TestFetchOne_SaveError(t *testing.T) {
	server := newExportServer(t, nil)
	diskFull := errors.New("disk full")
	saver := saverFunc(func(context.Context, string, string, []byte) error { return diskFull })
	exporter := newTestExporter(saver, server.URL)

	outcome := exporter.FetchOne(context.Background(), server.URL+"/x?format=csv", "x.csv", model.FormatCSV)

	if !errors.Is(outcome.Err, ErrSave) {
		t.Errorf("Err = %v, want ErrSave", outcome.Err)
	}
	if !errors.Is(outcome.Err, diskFull) {
		t.Errorf("Err = %v, want wrapped cause", outcome.Err)
	}
}

func TestFetchOne_SameURLTwoNames(t *testing.T) {
	server := newExportServer(t, nil)
	saver := newMemSaver(t)
	exporter := newTestExporter(saver, server.URL)
	url := server.URL + "/x?format=csv"

	first := exporter.FetchOne(context.Background(), url, "first.csv", model.FormatCSV)
	second := exporter.FetchOne(context.Background(), url, "second.csv", model.FormatCSV)

	if !first.Succeeded || !second.Succeeded {
		t.Fatalf("expected both to succeed: %v, %v", first.Err, second.Err)
	}
	for _, name := range []string{"first.csv", "second.csv"} {
		if !exists(t, saver, name) {
			t.Errorf("%s not saved", name)
		}
	}
}

func TestFetchOne_StrictValidation(t *testing.T) {
	signIn := "<!DOCTYPE html><html><head><title>Sign in - Google Accounts</title></head><body>" +
		strings.Repeat("<p>please sign in</p>", 5) + "</body></html>"

	tests := []struct {
		name   string
		format model.Format
		resp   response
	}{
		{"sign-in page as csv", model.FormatCSV, response{contentType: "text/html; charset=utf-8", body: signIn}},
		{"text as xlsx", model.FormatXLSX, response{contentType: "application/octet-stream", body: csvBody}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newExportServer(t, map[string]response{string(tt.format): tt.resp})
			exporter := newTestExporter(newMemSaver(t), server.URL, WithValidator(validate.Strict(0)))

			url := server.URL + "/x?format=" + string(tt.format)
			outcome := exporter.FetchOne(context.Background(), url, "x"+tt.format.Extension(), tt.format)

			if outcome.Succeeded {
				t.Fatal("expected strict validation to reject the body")
			}
		})
	}
}

func TestFetchAll_Ratio(t *testing.T) {
	server := newExportServer(t, map[string]response{
		"xlsx": {status: nethttp.StatusInternalServerError, body: "boom"},
	})
	saver := newMemSaver(t)

	var waits int
	pacer := PacerFunc(func(ctx context.Context) error {
		waits++
		return nil
	})
	exporter := newTestExporter(saver, server.URL, WithPacer(pacer))

	ref := model.NewSheetReference("abc123", "7")
	result := exporter.FetchAll(context.Background(), sheets.NewBuilder(server.URL).Build(ref))

	if result.Ratio() != "3/4" {
		t.Errorf("Ratio() = %q, want 3/4", result.Ratio())
	}
	if result.ID == "" {
		t.Error("expected a batch ID")
	}
	if waits != 3 {
		t.Errorf("pacer waited %d times, want 3", waits)
	}

	want := []string{"csv", "xlsx", "tsv", "html"}
	got := server.Requested()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("requested %v, want %v", got, want)
	}

	for i, o := range result.Outcomes {
		if string(o.Format) != want[i] {
			t.Errorf("outcome %d format = %s, want %s", i, o.Format, want[i])
		}
		wantName := "sheet_export_1700000000000." + want[i]
		if o.FileName != wantName {
			t.Errorf("outcome %d FileName = %q, want %q", i, o.FileName, wantName)
		}
	}

	failed := result.Failed()
	if len(failed) != 1 || failed[0].Format != model.FormatXLSX {
		t.Errorf("Failed() = %+v", failed)
	}
}

func TestFetchAll_MissingEndpoint(t *testing.T) {
	server := newExportServer(t, nil)
	exporter := newTestExporter(newMemSaver(t), server.URL)

	endpoints := model.EndpointSet{
		model.FormatCSV: server.URL + "/x?format=csv",
	}
	result := exporter.FetchAll(context.Background(), endpoints, model.FormatCSV, model.FormatPDF)

	if result.Total != 2 || result.Succeeded != 1 {
		t.Fatalf("got %s, want 1/2", result.Ratio())
	}
	if !errors.Is(result.Outcomes[1].Err, ErrMissingEndpoint) {
		t.Errorf("Err = %v, want ErrMissingEndpoint", result.Outcomes[1].Err)
	}
	if got := server.Requested(); len(got) != 1 {
		t.Errorf("requested %v, want only csv", got)
	}
}

func TestFetchAll_Cancelled(t *testing.T) {
	server := newExportServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pacer := PacerFunc(func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	exporter := newTestExporter(newMemSaver(t), server.URL, WithPacer(pacer))

	ref := model.NewSheetReference("abc123", "0")
	result := exporter.Export(ctx, ref)

	if result.Total != 4 || len(result.Outcomes) != 4 {
		t.Fatalf("Total = %d, outcomes = %d, want 4", result.Total, len(result.Outcomes))
	}
	if result.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", result.Succeeded)
	}
	for _, o := range result.Outcomes[1:] {
		if !errors.Is(o.Err, context.Canceled) || !IsCancelled(o) {
			t.Errorf("%s: Err = %v, want context.Canceled", o.Format, o.Err)
		}
	}
	if got := server.Requested(); len(got) != 1 {
		t.Errorf("requested %v, want only the first format", got)
	}
}

func TestExport_UsesReferenceInNames(t *testing.T) {
	server := newExportServer(t, nil)
	saver := newMemSaver(t)
	exporter := newTestExporter(saver, server.URL, WithFileNamePattern("{document}_{gid}_{timestamp}"))

	ref := model.NewSheetReference("abc123", "42")
	result := exporter.Export(context.Background(), ref, model.FormatCSV)

	if result.Ratio() != "1/1" {
		t.Fatalf("Ratio() = %s: %v", result.Ratio(), result.Outcomes[0].Err)
	}
	if !exists(t, saver, "abc123_42_1700000000000.csv") {
		t.Error("expected file named from reference")
	}
}

func TestExportFormat(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))
	defer server.Close()

	var events []ProgressEvent
	exporter := newTestExporter(newMemSaver(t), server.URL, WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))

	outcome := exporter.ExportFormat(context.Background(), model.NewSheetReference("abc123", "9"), model.FormatCSV)
	if !outcome.Succeeded {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if gotPath != "/spreadsheets/d/abc123/export" || gotQuery != "format=csv&gid=9" {
		t.Errorf("requested %s?%s", gotPath, gotQuery)
	}
	if outcome.FileName != "sheet_export_1700000000000.csv" {
		t.Errorf("FileName = %q", outcome.FileName)
	}

	var sawStart, sawDone bool
	for _, ev := range events {
		switch {
		case ev.Message == "Downloading CSV..." && ev.Level == LevelInfo:
			sawStart = true
		case ev.Message == "Downloaded CSV successfully!" && ev.Level == LevelSuccess:
			sawDone = true
		}
	}
	if !sawStart || !sawDone {
		t.Errorf("missing progress events: %+v", events)
	}
}

func TestFetchAll_BatchProgress(t *testing.T) {
	server := newExportServer(t, nil)

	var calls [][2]int
	exporter := newTestExporter(newMemSaver(t), server.URL, WithBatchProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))

	exporter.Export(context.Background(), model.NewSheetReference("abc123", "0"), model.FormatCSV, model.FormatTSV)

	want := [][2]int{{1, 2}, {2, 2}}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestPacers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := FixedDelay(time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("FixedDelay on cancelled context = %v", err)
	}
	if err := NoDelay().Wait(context.Background()); err != nil {
		t.Errorf("NoDelay = %v", err)
	}

	start := time.Now()
	if err := FixedDelay(15 * time.Millisecond).Wait(context.Background()); err != nil {
		t.Fatalf("FixedDelay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("FixedDelay waited %v, want at least 15ms", elapsed)
	}

	limiter := RateLimit(1000, 0)
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("RateLimit wait %d: %v", i, err)
		}
	}
}

func TestFetchAll_RateLimitSpacesEveryRequest(t *testing.T) {
	const interval = 50 * time.Millisecond

	var (
		mu    sync.Mutex
		times []time.Time
	)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))
	defer server.Close()

	exporter := newTestExporter(newMemSaver(t), server.URL, WithPacer(RateLimit(rate.Every(interval), 1)))
	ref := model.NewSheetReference("abc123", "0")

	result := exporter.Export(context.Background(), ref, model.FormatCSV, model.FormatTSV, model.FormatHTML)
	if result.Ratio() != "3/3" {
		t.Fatalf("Ratio() = %s", result.Ratio())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 3 {
		t.Fatalf("got %d requests, want 3", len(times))
	}
	// Allow scheduler jitter below the nominal interval.
	floor := interval - 10*time.Millisecond
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < floor {
			t.Errorf("gap between request %d and %d = %v, want at least %v", i, i+1, gap, floor)
		}
	}
}

func TestRateLimit_StartWaitsAfterPreviousBatch(t *testing.T) {
	pacer := RateLimit(rate.Every(40*time.Millisecond), 1)
	starter, ok := pacer.(batchStarter)
	if !ok {
		t.Fatal("RateLimit pacer does not meter the first request")
	}

	ctx := context.Background()
	if err := starter.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	begin := time.Now()
	if err := starter.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if elapsed := time.Since(begin); elapsed < 30*time.Millisecond {
		t.Errorf("second batch started after %v, want about 40ms", elapsed)
	}
}
