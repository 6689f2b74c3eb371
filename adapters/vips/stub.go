//go:build !govips || !cgo

// Package vips provides an optional libvips-backed codec set. Without the
// govips build tag (and cgo) this stub keeps the package importable; the
// backend reports itself unavailable.
package vips

import (
	"errors"

	"github.com/okulov/photonorm/core"
)

// ErrUnavailable is returned when the binary was built without libvips.
var ErrUnavailable = errors.New("vips: backend not compiled in (build with -tags govips)")

// Available reports whether the libvips backend was compiled in.
func Available() bool { return false }

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is unavailable in this build.
type Backend struct{}

// NewBackend always fails without the govips build tag.
func NewBackend(BackendConfig) (*Backend, error) { return nil, ErrUnavailable }

// Shutdown is a no-op in this build.
func (b *Backend) Shutdown() {}

// Register is a no-op in this build.
func Register(core.Registry, *Backend) {}
