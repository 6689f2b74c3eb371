// Package errors defines the failure taxonomy shared across the module.
//
// The pipeline surfaces exactly two hard failure kinds: decode failures
// (unreadable sources) and encode failures (unwritable output). Everything
// else that goes wrong mid-flight is absorbed as a degradation on the frame
// and never reaches the caller as an error.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a hard pipeline failure.
type Kind string

const (
	KindDecode Kind = "decode"
	KindEncode Kind = "encode"
)

// Error is the structured error carried out of the pipeline. The message
// keeps the stable "Failed to process image" prefix that callers and log
// scrapers match on; Kind and Stage carry the structure.
type Error struct {
	Kind  Kind
	Stage string // pipeline stage the failure is attributed to
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to process image: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Decode builds a decode-kind error attributed to stage.
func Decode(stage string, err error) *Error {
	return &Error{Kind: KindDecode, Stage: stage, Err: err}
}

// Encode builds an encode-kind error attributed to stage.
func Encode(stage string, err error) *Error {
	return &Error{Kind: KindEncode, Stage: stage, Err: err}
}

// WrapDecode wraps err as a decode failure. A nil err stays nil.
func WrapDecode(stage string, err error) error {
	if err == nil {
		return nil
	}
	return Decode(stage, err)
}

// WrapEncode wraps err as an encode failure. A nil err stays nil.
func WrapEncode(stage string, err error) error {
	if err == nil {
		return nil
	}
	return Encode(stage, err)
}

// KindOf extracts the failure kind from err, unwrapping as needed.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsDecode reports whether err is (or wraps) a decode failure.
func IsDecode(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindDecode
}

// IsEncode reports whether err is (or wraps) an encode failure.
func IsEncode(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindEncode
}

// StageOf extracts the pipeline stage err was attributed to.
func StageOf(err error) (string, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage, true
	}
	return "", false
}

// Sentinel errors the stages wrap into Error values.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrImageTooLarge     = errors.New("image exceeds pixel limit")
	ErrSourceTooLarge    = errors.New("source exceeds byte limit")
	ErrEmptyInput        = errors.New("empty input")
	ErrNilBuffer         = errors.New("nil or released pixel buffer")
	ErrNoOutput          = errors.New("encoder produced no output")
	ErrQueueFull         = errors.New("worker queue is full")
)
