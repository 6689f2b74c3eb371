package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	apperrors "github.com/okulov/photonorm/errors"
	"github.com/okulov/photonorm/utils"
)

// DefaultMaxSourceBytes bounds how much a one-shot reader source is allowed
// to buffer before it is rejected.
const DefaultMaxSourceBytes = 64 << 20

// ── File source ───────────────────────────────────────────────────────────────

// FileSource opens a fresh read stream against a file path on every Open
// call, so each pipeline stage gets its own stream positioned at the start.
type FileSource struct {
	Path string
}

// NewFileSource creates a Source backed by the file at path.
func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Size() int64 {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return -1
	}
	return fi.Size()
}

// ── Bytes source ──────────────────────────────────────────────────────────────

// BytesSource serves an in-memory byte slice; reopening is free.
type BytesSource struct {
	Data []byte
	Tag  string // optional logical name
}

// NewBytesSource creates a Source backed by b. The slice is not copied; the
// caller must not mutate it while the pipeline runs.
func NewBytesSource(b []byte) *BytesSource { return &BytesSource{Data: b} }

func (s *BytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	if len(s.Data) == 0 {
		return nil, apperrors.ErrEmptyInput
	}
	return io.NopCloser(utils.BytesReader(s.Data)), nil
}

func (s *BytesSource) Name() string { return s.Tag }

func (s *BytesSource) Size() int64 { return int64(len(s.Data)) }

// ── Reader source ─────────────────────────────────────────────────────────────

// ReaderSource adapts a one-shot io.Reader into a reopenable Source by
// draining it into memory on first Open. The drain is bounded by MaxBytes so
// an unbounded stream cannot exhaust memory.
type ReaderSource struct {
	R         io.Reader
	Tag       string
	MaxBytes  int64 // 0 = DefaultMaxSourceBytes
	ChunkSize int   // drain chunk size in bytes; 0 = utils default

	once sync.Once
	data []byte
	err  error
}

// NewReaderSource wraps r. The reader is consumed lazily, on the first
// pipeline stage that opens the source.
func NewReaderSource(r io.Reader) *ReaderSource { return &ReaderSource{R: r} }

func (s *ReaderSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.once.Do(func() { s.drain(ctx) })
	if s.err != nil {
		return nil, s.err
	}
	if len(s.data) == 0 {
		return nil, apperrors.ErrEmptyInput
	}
	return io.NopCloser(utils.BytesReader(s.data)), nil
}

func (s *ReaderSource) drain(ctx context.Context) {
	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	// One byte of slack so a stream of exactly maxBytes is not rejected.
	lr := &utils.LimitedReader{R: s.R, Max: maxBytes + 1}
	buf, err := utils.DrainReader(ctx, lr, s.ChunkSize)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("%w: more than %d bytes", apperrors.ErrSourceTooLarge, maxBytes)
		}
		s.err = err
		return
	}
	s.data = utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
}

func (s *ReaderSource) Name() string { return s.Tag }

// Size is unknown until the reader has been drained.
func (s *ReaderSource) Size() int64 {
	if s.data == nil {
		return -1
	}
	return int64(len(s.data))
}
