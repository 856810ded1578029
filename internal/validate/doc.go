// Package validate classifies export bodies that arrived with a success
// status but are not real exports.
//
// The export endpoint answers unauthorized or missing sheets with an HTML
// page and a 200 status, so transport success alone proves nothing.
// A Validator inspects the body and returns ErrAccessDenied or
// ErrEmptyOrInvalidResponse.
//
// # Validators
//
//   - Heuristic: "<html" plus "error" substrings, and a 50-character floor
//   - Markup: parses the body with golang.org/x/net/html and checks the title
//   - Signature: ZIP and PDF magic bytes for binary formats
//   - Workbook: opens xlsx payloads with excelize
//
// Default returns the heuristic alone; Strict chains all four:
//
//	v := validate.Strict(validate.DefaultMinLength)
//	if err := v.Validate(model.FormatCSV, "text/csv", body); err != nil {
//	    if errors.Is(err, validate.ErrAccessDenied) {
//	        fmt.Println("sheet is private")
//	    }
//	}
//
// Any function can serve as a validator through Func.
package validate
