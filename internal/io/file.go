// Package ioutils provides file system utilities for the sheets-exporter.
//
// This package contains functions for:
//   - Home directory expansion
//   - Directory creation
//   - Bucket URL detection
package ioutils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the current user's home directory.
//
// Paths that do not start with "~" are returned unchanged.
//
// Example:
//
//	dir, err := ExpandHome("~/Downloads")
//	// dir == "/home/user/Downloads"
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsBucketURL reports whether dest is a gocloud bucket URL such as
// "file:///srv/exports", "mem://" or "s3://bucket" rather than a local path.
func IsBucketURL(dest string) bool {
	scheme, _, ok := strings.Cut(dest, "://")
	if !ok || scheme == "" {
		return false
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
