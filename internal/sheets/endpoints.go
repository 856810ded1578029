package sheets

import (
	"fmt"
	"strings"

	"github.com/handiism/sheets-exporter/internal/model"
)

// DefaultHost is the origin serving spreadsheet export endpoints.
const DefaultHost = "https://docs.google.com"

// Builder constructs export endpoint URLs for a host.
//
// Builder performs pure string construction: it never touches the network
// and never checks that the endpoints are reachable.
type Builder struct {
	host string
}

// NewBuilder creates a Builder for host. An empty host uses DefaultHost.
// A trailing slash on host is ignored.
func NewBuilder(host string) *Builder {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = DefaultHost
	}
	return &Builder{host: host}
}

// Host returns the origin this Builder targets.
func (b *Builder) Host() string {
	return b.host
}

// ExportURL returns the export endpoint of ref for a single format.
//
// Example:
//
//	b.ExportURL(model.NewSheetReference("abc123XYZ_-", "42"), model.FormatCSV)
//	// https://docs.google.com/spreadsheets/d/abc123XYZ_-/export?format=csv&gid=42
func (b *Builder) ExportURL(ref model.SheetReference, f model.Format) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=%s&gid=%s", b.host, ref.DocumentID, f, ref.SubsheetID)
}

// Build returns one export endpoint per supported format.
//
// The same reference always yields byte-for-byte identical URLs.
func (b *Builder) Build(ref model.SheetReference) model.EndpointSet {
	formats := model.AllFormats()
	endpoints := make(model.EndpointSet, len(formats))
	for _, f := range formats {
		endpoints[f] = b.ExportURL(ref, f)
	}
	return endpoints
}

var defaultBuilder = NewBuilder(DefaultHost)

// BuildEndpoints returns the export endpoints of ref on DefaultHost.
func BuildEndpoints(ref model.SheetReference) model.EndpointSet {
	return defaultBuilder.Build(ref)
}
