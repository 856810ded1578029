package validate

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/handiism/sheets-exporter/internal/model"
)

// Validation failures. Every Validator returns one of these, possibly wrapped.
var (
	// ErrAccessDenied means the endpoint answered with an error page
	// instead of sheet data, usually because the sheet is private or missing.
	ErrAccessDenied = errors.New("access denied - received error page")

	// ErrEmptyOrInvalidResponse means the body does not look like an export.
	ErrEmptyOrInvalidResponse = errors.New("response too short - likely not valid data")
)

// DefaultMinLength is the shortest body accepted by the heuristic validator.
const DefaultMinLength = 50

// Validator decides whether a successfully transported body is a real export.
//
// Implementations must be safe to call from multiple goroutines and must
// not retain body.
type Validator interface {
	Validate(f model.Format, contentType string, body []byte) error
}

// Func adapts a function to the Validator interface.
type Func func(f model.Format, contentType string, body []byte) error

// Validate calls fn.
func (fn Func) Validate(f model.Format, contentType string, body []byte) error {
	return fn(f, contentType, body)
}

// Heuristic is the default content check.
//
// It applies two rules in order:
//  1. A body containing both "<html" and "error" is an error page (ErrAccessDenied)
//  2. A body shorter than MinLength characters is not an export (ErrEmptyOrInvalidResponse)
//
// Both rules are unvalidated guesses: a legitimate HTML export that mentions
// "error", or a genuinely tiny sheet, is misclassified.
type Heuristic struct {
	// MinLength is the character floor. Zero uses DefaultMinLength.
	MinLength int
}

var (
	htmlMarker  = []byte("<html")
	errorMarker = []byte("error")
)

// Validate implements Validator.
func (h Heuristic) Validate(_ model.Format, _ string, body []byte) error {
	if bytes.Contains(body, htmlMarker) && bytes.Contains(body, errorMarker) {
		return ErrAccessDenied
	}

	minLength := h.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if n := utf8.RuneCount(body); n < minLength {
		return fmt.Errorf("%w (%d characters)", ErrEmptyOrInvalidResponse, n)
	}

	return nil
}

// Chain runs validators in order and returns the first failure.
type Chain []Validator

// Validate implements Validator.
func (c Chain) Validate(f model.Format, contentType string, body []byte) error {
	for _, v := range c {
		if v == nil {
			continue
		}
		if err := v.Validate(f, contentType, body); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the heuristic validator with the default length floor.
func Default() Validator {
	return Heuristic{MinLength: DefaultMinLength}
}

// Strict returns the heuristic followed by the markup, signature and
// workbook checks.
func Strict(minLength int) Validator {
	return Chain{
		Heuristic{MinLength: minLength},
		Markup{},
		Signature{},
		Workbook{},
	}
}
