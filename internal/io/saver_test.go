package ioutils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBlobSaver_Mem(t *testing.T) {
	ctx := context.Background()

	saver, err := OpenSaver(ctx, "mem://")
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	defer saver.Close()

	data := []byte("a,b,c\n1,2,3\n")
	if err := saver.Save(ctx, "sheet_export_1.csv", "text/csv", data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := saver.Bucket().ReadAll(ctx, "sheet_export_1.csv")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("stored %q, want %q", got, data)
	}

	attrs, err := saver.Bucket().Attributes(ctx, "sheet_export_1.csv")
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if attrs.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", attrs.ContentType)
	}
}

func TestBlobSaver_Overwrite(t *testing.T) {
	ctx := context.Background()

	saver, err := OpenSaver(ctx, "mem://")
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	defer saver.Close()

	if err := saver.Save(ctx, "f.tsv", "text/plain", []byte("old")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := saver.Save(ctx, "f.tsv", "text/plain", []byte("new")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := saver.Bucket().ReadAll(ctx, "f.tsv")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("stored %q, want new", got)
	}
}

func TestBlobSaver_EmptyName(t *testing.T) {
	ctx := context.Background()

	saver, err := OpenSaver(ctx, "mem://")
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	defer saver.Close()

	if err := saver.Save(ctx, "", "text/plain", []byte("x")); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestOpenSaver_LocalDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	saver, err := OpenSaver(ctx, dir)
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	defer saver.Close()

	if saver.Destination() != dir {
		t.Errorf("Destination() = %q, want %q", saver.Destination(), dir)
	}

	if err := saver.Save(ctx, "sheet_export_2.html", "text/html", []byte("<table></table>")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "sheet_export_2.html"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "<table></table>" {
		t.Errorf("file content = %q", got)
	}
}

func TestIsBucketURL(t *testing.T) {
	tests := []struct {
		dest string
		want bool
	}{
		{"mem://", true},
		{"file:///tmp/out", true},
		{"s3://bucket?region=us-east-1", true},
		{"/tmp/out", false},
		{"~/Downloads", false},
		{"relative/dir", false},
		{`C:\Users\me`, false},
		{"://nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			if got := IsBucketURL(tt.dest); got != tt.want {
				t.Errorf("IsBucketURL(%q) = %v, want %v", tt.dest, got, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandHome("~/Downloads")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if want := filepath.Join(home, "Downloads"); got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}

	if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
}

func TestOpenSaver_LocalDirectoryNoSidecars(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	saver, err := OpenSaver(ctx, dir)
	if err != nil {
		t.Fatalf("OpenSaver: %v", err)
	}
	defer saver.Close()

	if err := saver.Save(ctx, "a.csv", "text/csv", []byte("a,b\n")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".attrs" {
			t.Errorf("unexpected sidecar file %s", e.Name())
		}
	}
}
