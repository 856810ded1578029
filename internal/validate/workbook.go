package validate

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/handiism/sheets-exporter/internal/model"
)

var (
	zipSignature = []byte("PK\x03\x04")
	pdfSignature = []byte("%PDF-")
)

// Signature checks the magic bytes of binary exports.
//
// xlsx and ods exports are ZIP containers and pdf exports start with %PDF-.
// Text formats are passed through.
type Signature struct{}

// Validate implements Validator.
func (Signature) Validate(f model.Format, _ string, body []byte) error {
	switch f {
	case model.FormatXLSX, model.FormatODS:
		if !bytes.HasPrefix(body, zipSignature) {
			return fmt.Errorf("%w: %s export is not a ZIP container", ErrEmptyOrInvalidResponse, f)
		}
	case model.FormatPDF:
		if !bytes.HasPrefix(body, pdfSignature) {
			return fmt.Errorf("%w: pdf export has no PDF header", ErrEmptyOrInvalidResponse)
		}
	}
	return nil
}

// Workbook opens xlsx exports to confirm they are readable workbooks.
//
// A body that excelize cannot open, or a workbook without sheets, is
// rejected with ErrEmptyOrInvalidResponse. Other formats are passed through.
type Workbook struct{}

// Validate implements Validator.
func (Workbook) Validate(f model.Format, _ string, body []byte) error {
	if f != model.FormatXLSX {
		return nil
	}

	sheets, err := SheetNames(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyOrInvalidResponse, err)
	}
	if len(sheets) == 0 {
		return fmt.Errorf("%w: workbook has no sheets", ErrEmptyOrInvalidResponse)
	}
	return nil
}

// SheetNames returns the tab names of an xlsx payload, in workbook order.
//
// Example:
//
//	names, err := validate.SheetNames(outcome.Payload)
//	// names == []string{"Sheet1", "Summary"}
func SheetNames(xlsx []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(xlsx))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
