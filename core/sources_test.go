package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/okulov/photonorm/errors"
)

func readAll(t *testing.T, s Source) []byte {
	t.Helper()
	rc, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bin")
	payload := []byte("file payload")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	if src.Name() != path {
		t.Errorf("Name: got %q", src.Name())
	}
	if src.Size() != int64(len(payload)) {
		t.Errorf("Size: got %d", src.Size())
	}
	// Each Open returns a fresh stream from the start.
	for i := 0; i < 3; i++ {
		if got := readAll(t, src); !bytes.Equal(got, payload) {
			t.Fatalf("open %d: got %q", i, got)
		}
	}
}

func TestFileSource_Missing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.bin"))
	if _, err := src.Open(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if src.Size() != -1 {
		t.Errorf("Size for missing file: got %d, want -1", src.Size())
	}
}

func TestBytesSource(t *testing.T) {
	payload := []byte("bytes payload")
	src := NewBytesSource(payload)
	if src.Size() != int64(len(payload)) {
		t.Errorf("Size: got %d", src.Size())
	}
	for i := 0; i < 3; i++ {
		if got := readAll(t, src); !bytes.Equal(got, payload) {
			t.Fatalf("open %d: got %q", i, got)
		}
	}
}

func TestBytesSource_Empty(t *testing.T) {
	src := NewBytesSource(nil)
	if _, err := src.Open(context.Background()); !errors.Is(err, apperrors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestReaderSource_DrainsOnceAndReopens(t *testing.T) {
	payload := strings.Repeat("x", 100)
	src := NewReaderSource(strings.NewReader(payload))

	if src.Size() != -1 {
		t.Errorf("Size before drain: got %d, want -1", src.Size())
	}
	for i := 0; i < 3; i++ {
		if got := readAll(t, src); string(got) != payload {
			t.Fatalf("open %d: got %d bytes", i, len(got))
		}
	}
	if src.Size() != int64(len(payload)) {
		t.Errorf("Size after drain: got %d", src.Size())
	}
}

func TestReaderSource_ExactLimitAccepted(t *testing.T) {
	payload := strings.Repeat("y", 1024)
	src := NewReaderSource(strings.NewReader(payload))
	src.MaxBytes = 1024

	if got := readAll(t, src); len(got) != 1024 {
		t.Errorf("got %d bytes, want 1024", len(got))
	}
}

func TestReaderSource_OverLimitRejected(t *testing.T) {
	src := NewReaderSource(strings.NewReader(strings.Repeat("z", 1025)))
	src.MaxBytes = 1024

	_, err := src.Open(context.Background())
	if !errors.Is(err, apperrors.ErrSourceTooLarge) {
		t.Errorf("expected ErrSourceTooLarge, got %v", err)
	}
	// The failure is sticky across reopens.
	if _, err := src.Open(context.Background()); !errors.Is(err, apperrors.ErrSourceTooLarge) {
		t.Errorf("expected sticky failure, got %v", err)
	}
}

func TestReaderSource_EmptyStream(t *testing.T) {
	src := NewReaderSource(strings.NewReader(""))
	if _, err := src.Open(context.Background()); !errors.Is(err, apperrors.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}
