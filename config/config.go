// Package config holds the programmatic configuration for the processor.
package config

import (
	"errors"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Config is the top-level configuration struct.  All fields have safe
// defaults so callers can start with Default() and override what they need.
type Config struct {
	// Encode defaults.
	Quality int // JPEG quality 1-100; default 85

	// Geometry.
	MaxDimension int // longer output axis bound in pixels; default 1024
	// BudgetFactor sets the decode headroom: the probe stage targets
	// BudgetFactor*MaxDimension on the smaller axis so the later resize
	// never has to upsample. Default 2.
	BudgetFactor int

	// Guards applied before any pixel allocation.
	MaxPixels      int64 // reject sources above this Width*Height; 0 = no limit
	MaxSourceBytes int64 // reader-source drain bound; default 64 MiB

	// Worker pool controls.
	WorkerCount int           // default: runtime.NumCPU()
	QueueSize   int           // max queued jobs before Submit rejects; default 256
	JobTimeout  time.Duration // per-job deadline applied by the pool; 0 = none

	// Resampler used by the resize stage.  Defaults to xdraw.BiLinear.
	Resampler xdraw.Interpolator

	// Streaming chunk size in bytes for source draining; default 32 KiB.
	DrainChunkSize int
}

// Default returns a Config populated with the production defaults: quality
// 85 JPEG bounded to 1024 px on the longer side.
func Default() Config {
	return Config{
		Quality:        85,
		MaxDimension:   1024,
		BudgetFactor:   2,
		MaxPixels:      256 << 20, // 256 MP, comfortably above any phone sensor
		MaxSourceBytes: 64 << 20,
		WorkerCount:    0, // resolved at runtime to NumCPU
		QueueSize:      256,
		JobTimeout:     30 * time.Second,
		DrainChunkSize: 32 * 1024,
	}
}

// TargetBudget returns the decode budget in pixels for the smaller axis.
func (c Config) TargetBudget() int {
	factor := c.BudgetFactor
	if factor < 1 {
		factor = 2
	}
	return factor * c.MaxDimension
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Quality < 1 || c.Quality > 100 {
		return errors.New("config: Quality must be between 1 and 100")
	}
	if c.MaxDimension <= 0 {
		return errors.New("config: MaxDimension must be positive")
	}
	if c.BudgetFactor < 1 {
		return errors.New("config: BudgetFactor must be at least 1")
	}
	if c.MaxPixels < 0 {
		return errors.New("config: MaxPixels must not be negative")
	}
	if c.MaxSourceBytes < 0 {
		return errors.New("config: MaxSourceBytes must not be negative")
	}
	if c.DrainChunkSize < 0 {
		return errors.New("config: DrainChunkSize must not be negative")
	}
	return nil
}
