//go:build govips && cgo

package vips_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	photonorm "github.com/okulov/photonorm"
	"github.com/okulov/photonorm/adapters/vips"
	"github.com/okulov/photonorm/config"
)

func makeJPEG(b *testing.B, w, h int) []byte {
	b.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92})
	return buf.Bytes()
}

func newVipsProc(b *testing.B) *photonorm.Processor {
	b.Helper()
	cfg := config.Default()
	backend, err := vips.NewBackend(vips.BackendConfig{DefaultQuality: cfg.Quality})
	if err != nil {
		b.Fatalf("vips backend: %v", err)
	}
	b.Cleanup(backend.Shutdown)

	reg := photonorm.DefaultRegistry(cfg)
	vips.Register(reg, backend)
	proc, err := photonorm.New(photonorm.WithConfig(cfg), photonorm.WithRegistry(reg))
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}
	return proc
}

func newStdlibProc(b *testing.B) *photonorm.Processor {
	b.Helper()
	proc, err := photonorm.New()
	if err != nil {
		b.Fatalf("new processor: %v", err)
	}
	return proc
}

func benchProcess(b *testing.B, proc *photonorm.Processor, raw []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := proc.Process(context.Background(), photonorm.FromBytes(raw)); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

func BenchmarkProcess_Stdlib_1920x1080(b *testing.B) {
	benchProcess(b, newStdlibProc(b), makeJPEG(b, 1920, 1080))
}

func BenchmarkProcess_Vips_1920x1080(b *testing.B) {
	benchProcess(b, newVipsProc(b), makeJPEG(b, 1920, 1080))
}

func BenchmarkProcess_Stdlib_4000x3000(b *testing.B) {
	benchProcess(b, newStdlibProc(b), makeJPEG(b, 4000, 3000))
}

func BenchmarkProcess_Vips_4000x3000(b *testing.B) {
	benchProcess(b, newVipsProc(b), makeJPEG(b, 4000, 3000))
}
