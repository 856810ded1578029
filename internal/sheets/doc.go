// Package sheets turns spreadsheet page URLs into export endpoints.
//
// The package handles two steps:
//
//  1. Extracting the document id and subsheet id (gid) from a page URL
//  2. Building one export URL per supported format
//
// # Reference Extraction
//
// Use ParseReference on the URL of a spreadsheet page:
//
//	ref, err := sheets.ParseReference("https://docs.google.com/spreadsheets/d/1AbC/edit#gid=42")
//	if errors.Is(err, sheets.ErrMissingDocumentID) {
//	    log.Fatal("not a spreadsheet URL")
//	}
//	fmt.Println(ref.DocumentID, ref.SubsheetID) // 1AbC 42
//
// # Endpoint Building
//
// BuildEndpoints maps a reference to the fixed set of export URLs:
//
//	endpoints := sheets.BuildEndpoints(ref)
//	fmt.Println(endpoints[model.FormatCSV])
//	// https://docs.google.com/spreadsheets/d/1AbC/export?format=csv&gid=42
//
// A Builder with a different host can be used for mirrors or tests:
//
//	b := sheets.NewBuilder(server.URL)
//	endpoints := b.Build(ref)
//
// Both steps are pure: they perform no network access.
package sheets
