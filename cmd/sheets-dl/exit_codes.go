package main

import (
	"context"
	"errors"

	"github.com/handiism/sheets-exporter/internal/config"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
)

// Exit codes for sheets-dl.
// Follows Unix conventions: 0=success, 1=general, 2=usage, 128+SIGINT on interrupt.
const (
	ExitSuccess     = 0   // Every requested export succeeded
	ExitGeneral     = 1   // Unexpected error or at least one export failed
	ExitUsage       = 2   // Invalid flags, arguments, URL, format or config
	ExitInterrupted = 130 // Cancelled by SIGINT/SIGTERM
)

var (
	// ErrUsage marks errors caused by invalid command-line input.
	ErrUsage = errors.New("invalid usage")

	// ErrExportFailed is returned when at least one format failed.
	ErrExportFailed = errors.New("export failed")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, sheets.ErrMissingDocumentID) ||
		errors.Is(err, model.ErrUnknownFormat) ||
		errors.Is(err, config.ErrConfigParse) {
		return ExitUsage
	}

	return ExitGeneral
}
