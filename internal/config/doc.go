// Package config provides configuration management for sheets-exporter.
//
// This package handles:
//   - Loading and saving settings from YAML files
//   - Default configuration values
//   - Conversion to client options, pacer, validator and exporter options
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Saves to ~/Downloads as sheet_export_{timestamp}.<format>
//	// Batch of csv, xlsx, tsv, html with 500ms between requests
//	// 60s request timeout, anonymous requests
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// A settings file looks like:
//
//	output: ~/Downloads/sheets
//	batch_formats: [csv, xlsx]
//	batch_delay: 1s
//	cookie_file: ~/cookies.txt
//	headers:
//	  X-Goog-AuthUser: "1"
//
// # Saving Settings
//
//	settings.Output = "file:///srv/exports"
//	err := settings.Save(config.DefaultPath())
package config
