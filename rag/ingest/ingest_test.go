package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeAdder accepts .txt and .md files and fails any path containing "bad".
type fakeAdder struct {
	added []string
}

func (f *fakeAdder) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".md"
}

func (f *fakeAdder) AddFile(_ context.Context, path string) (int, error) {
	if strings.Contains(filepath.Base(path), "bad") {
		return 0, errors.New("parse failed")
	}
	f.added = append(f.added, path)
	return 2, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirectoryWalksAndAccounts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "one")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "two")
	writeFile(t, filepath.Join(dir, "sub", "bad.txt"), "broken")
	writeFile(t, filepath.Join(dir, "image.png"), "binary")
	writeFile(t, filepath.Join(dir, ".git", "c.txt"), "hidden")

	adder := &fakeAdder{}
	res, err := Directory(context.Background(), adder, dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	if res.Scanned != 4 {
		t.Errorf("scanned = %d, want 4 (dot-dirs excluded)", res.Scanned)
	}
	if res.Matched != 3 {
		t.Errorf("matched = %d, want 3", res.Matched)
	}
	if res.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", res.Indexed)
	}
	if res.Chunks != 4 {
		t.Errorf("chunks = %d, want 4", res.Chunks)
	}
	if len(res.Failed) != 1 || !strings.HasSuffix(res.Failed[0].Path, "bad.txt") {
		t.Errorf("failed = %v, want exactly bad.txt", res.Failed)
	}
	if len(adder.added) != 2 {
		t.Errorf("added = %v", adder.added)
	}
}

func TestDirectoryContinuesAfterFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1bad.txt"), "x")
	writeFile(t, filepath.Join(dir, "2ok.txt"), "y")

	adder := &fakeAdder{}
	res, err := Directory(context.Background(), adder, dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if res.Indexed != 1 || len(res.Failed) != 1 {
		t.Errorf("indexed = %d failed = %d, want one of each", res.Indexed, len(res.Failed))
	}
}

func TestDirectoryRejectsMissingDir(t *testing.T) {
	if _, err := Directory(context.Background(), &fakeAdder{}, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing directory should be an error")
	}
}

func TestDirectoryRejectsFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, "x")

	if _, err := Directory(context.Background(), &fakeAdder{}, path); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("file path should be rejected, got %v", err)
	}
}

func TestDirectoryStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Directory(ctx, &fakeAdder{}, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled walk returned %v, want context.Canceled", err)
	}
}
