package model

// DefaultSubsheetID is the gid of the first tab of a spreadsheet.
const DefaultSubsheetID = "0"

// SheetReference identifies a single tab of a spreadsheet document.
//
// SheetReference is a value type: it is produced once from a page URL and
// never mutated. A new page URL produces a new reference.
//
// Example:
//
//	ref := NewSheetReference("1AbCdEfGh", "")
//	// ref.SubsheetID == "0"
type SheetReference struct {
	// DocumentID is the opaque token following /spreadsheets/d/ in the page URL.
	DocumentID string

	// SubsheetID is the numeric gid selecting the tab within the document.
	SubsheetID string
}

// NewSheetReference creates a SheetReference, defaulting an empty subsheet id
// to DefaultSubsheetID.
func NewSheetReference(documentID, subsheetID string) SheetReference {
	if subsheetID == "" {
		subsheetID = DefaultSubsheetID
	}
	return SheetReference{
		DocumentID: documentID,
		SubsheetID: subsheetID,
	}
}

// Short returns an abbreviated document id for status messages. The
// ellipsis is always appended, even to ids of 8 characters or fewer.
//
// Example:
//
//	NewSheetReference("1AbCdEfGhIjK", "0").Short() // "1AbCdEfG..."
func (r SheetReference) Short() string {
	id := r.DocumentID
	if len(id) > 8 {
		id = id[:8]
	}
	return id + "..."
}

// IsZero reports whether the reference has no document id.
func (r SheetReference) IsZero() bool {
	return r.DocumentID == ""
}
