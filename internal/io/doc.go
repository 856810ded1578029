// Package ioutils provides the storage sink for exported files and file
// system helpers.
//
// This package contains:
//   - Saver, the destination exports are written to
//   - BlobSaver, a Saver backed by any gocloud.dev/blob bucket
//   - Directory expansion and creation helpers
//
// # Savers
//
// OpenSaver accepts a local directory or a bucket URL:
//
//	saver, err := ioutils.OpenSaver(ctx, "~/Downloads")       // local directory
//	saver, err := ioutils.OpenSaver(ctx, "file:///srv/exports") // fileblob URL
//	saver, err := ioutils.OpenSaver(ctx, "mem://")              // in-memory (tests)
//	defer saver.Close()
//
//	err = saver.Save(ctx, "sheet_export_1700000000000.csv", "text/csv", data)
//
// # Directories
//
//	dir, err := ioutils.ExpandHome("~/Downloads")
//	err = ioutils.EnsureDir(dir)
package ioutils
