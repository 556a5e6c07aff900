package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResultsSaveOpen(t *testing.T) {
	r, err := NewResults(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new results: %v", err)
	}
	data := []byte("%PDF-1.4 result bytes")
	if err := r.Save("a_split.pdf", data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.Open("a_split.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: %q", got)
	}

	if err := r.Remove("a_split.pdf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := r.Open("a_split.pdf"); err == nil {
		t.Fatal("expected error opening removed result")
	}
}

func TestResultsEncrypted(t *testing.T) {
	dir := t.TempDir()
	r, err := NewResults(dir, "secret")
	if err != nil {
		t.Fatalf("new results: %v", err)
	}
	data := []byte("sensitive result")
	if err := r.Save("enc.pdf", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "enc.pdf"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if bytes.Contains(raw, data) {
		t.Fatal("stored file contains plaintext")
	}

	got, err := r.Open("enc.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestResultsSweep(t *testing.T) {
	dir := t.TempDir()
	r, err := NewResults(dir, "")
	if err != nil {
		t.Fatalf("new results: %v", err)
	}
	if err := r.Save("old.pdf", []byte("old")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := r.Save("fresh.pdf", []byte("fresh")); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.pdf"), stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if n := r.Sweep(time.Hour); n != 1 {
		t.Fatalf("swept %d files, want 1", n)
	}
	if _, err := r.Open("old.pdf"); err == nil {
		t.Fatal("stale result should be gone")
	}
	if _, err := r.Open("fresh.pdf"); err != nil {
		t.Fatalf("fresh result should survive: %v", err)
	}
}

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(time.Hour)

	e := Entry{Name: "abc_split.pdf", OriginalName: "report.pdf", ContentType: "application/pdf", Size: 42, Created: time.Now()}
	if err := idx.Put(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := idx.Get(ctx, "abc_split.pdf")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.OriginalName != "report.pdf" || got.Size != 42 {
		t.Fatalf("entry = %+v", got)
	}

	if _, ok, _ := idx.Get(ctx, "missing.pdf"); ok {
		t.Fatal("missing name should not be found")
	}
}

func TestMemoryIndexExpiry(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(time.Minute)
	e := Entry{Name: "stale.zip", Created: time.Now().Add(-2 * time.Minute)}
	if err := idx.Put(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, _ := idx.Get(ctx, "stale.zip"); ok {
		t.Fatal("expired entry should not be returned")
	}
}
