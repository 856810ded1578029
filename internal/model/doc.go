// Package model defines the core data structures used throughout
// the sheets-exporter application.
//
// # SheetReference
//
// SheetReference identifies one tab of one spreadsheet:
//
//	ref := model.NewSheetReference("1AbC...", "42")
//	fmt.Println(ref.DocumentID, ref.SubsheetID)
//
// # Formats
//
// Format is the export format tag sent to the export endpoint:
//
//	for _, f := range model.AllFormats() {
//	    fmt.Println(f, f.Extension()) // csv .csv, tsv .tsv, ...
//	}
//
// BatchFormats returns the subset downloaded by an "export all" action.
//
// # Outcomes
//
// DownloadOutcome is produced by every fetch attempt and BatchResult
// aggregates the outcomes of a batch:
//
//	result := exporter.FetchAll(ctx, endpoints)
//	fmt.Println(result.Ratio()) // "3/4"
//
// # File Naming
//
// ExportFileName computes the saved file name from a pattern using the
// placeholders {timestamp}, {document}, {gid} and {format}.
package model
