package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func TestNewArena_CreatesDirectory(t *testing.T) {
	baseDir := filepath.Join(os.TempDir(), "creative_arena_test_"+randomSuffix())
	defer os.RemoveAll(baseDir)

	arena, err := NewArena(baseDir, "job-123")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	if arena.Dir() != filepath.Join(baseDir, "job-123") {
		t.Errorf("Dir() = %v, want %v", arena.Dir(), filepath.Join(baseDir, "job-123"))
	}

	info, err := os.Stat(arena.Dir())
	if err != nil {
		t.Fatalf("arena directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("arena path is not a directory")
	}
}

func TestNewArena_GeneratesRunID(t *testing.T) {
	baseDir := filepath.Join(os.TempDir(), "creative_arena_test_"+randomSuffix())
	defer os.RemoveAll(baseDir)

	a1, err := NewArena(baseDir, "")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}
	a2, err := NewArena(baseDir, "")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	if a1.Dir() == a2.Dir() {
		t.Error("expected distinct directories for distinct runs")
	}
}

func TestArena_NewFile(t *testing.T) {
	arena, err := NewArena(t.TempDir(), "job-1")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	p1 := arena.NewFile("mp4")
	p2 := arena.NewFile(".mp4")

	if p1 == p2 {
		t.Error("expected unique file names")
	}
	if !strings.HasSuffix(p1, ".mp4") || !strings.HasSuffix(p2, ".mp4") {
		t.Errorf("expected .mp4 suffix, got %s and %s", p1, p2)
	}
	if filepath.Dir(p1) != arena.Dir() {
		t.Errorf("file %s not inside arena %s", p1, arena.Dir())
	}
}

func TestArena_SaveAndOpen(t *testing.T) {
	arena, err := NewArena(t.TempDir(), "job-1")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	ctx := context.Background()
	path, err := arena.Save(ctx, "txt", bytes.NewReader([]byte("scratch data")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := arena.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "scratch data" {
		t.Errorf("got %q, want %q", string(content), "scratch data")
	}
}

func TestArena_Save_CancelledContext(t *testing.T) {
	arena, err := NewArena(t.TempDir(), "job-1")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := arena.Save(ctx, "txt", bytes.NewReader([]byte("x"))); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestArena_Cleanup(t *testing.T) {
	baseDir := t.TempDir()
	arena, err := NewArena(baseDir, "job-1")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	ctx := context.Background()
	if _, err := arena.Save(ctx, "mp4", bytes.NewReader([]byte("a"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := arena.Save(ctx, "mp4", bytes.NewReader([]byte("b"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := arena.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if _, err := os.Stat(arena.Dir()); !os.IsNotExist(err) {
		t.Error("expected arena directory to be removed")
	}
}

func TestArena_Upload_NotConfigured(t *testing.T) {
	arena, err := NewArena(t.TempDir(), "job-1")
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}

	_, err = arena.Upload(context.Background(), "key", bytes.NewReader([]byte("x")))
	if err != ErrS3NotConfigured {
		t.Errorf("Upload() error = %v, want ErrS3NotConfigured", err)
	}
}
