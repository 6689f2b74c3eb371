package decoder

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsample_Dimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, sample int
		wantW, wantH int
	}{
		{"sample 1 passthrough", 100, 60, 1, 100, 60},
		{"sample 2 even", 100, 60, 2, 50, 30},
		{"sample 2 odd rounds up", 101, 61, 2, 51, 31},
		{"sample 4", 4000, 3000, 4, 1000, 750},
		{"sample larger than image", 3, 3, 8, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h))
			out := Downsample(src, tt.sample)
			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDownsample_SampleOneIsIdentity(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if out := Downsample(src, 1); out != image.Image(src) {
		t.Error("sample 1 must return the source image unchanged")
	}
	if out := Downsample(nil, 2); out != nil {
		t.Error("nil source must stay nil")
	}
}

func TestDownsample_BoxAverage(t *testing.T) {
	// A 2x2 block of two blacks and two whites averages to mid grey.
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := Downsample(src, 2)
	got := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
	if got.R < 120 || got.R > 135 || got.G < 120 || got.G > 135 || got.B < 120 || got.B > 135 {
		t.Errorf("expected mid grey, got %v", got)
	}
	if got.A != 255 {
		t.Errorf("alpha must stay opaque, got %d", got.A)
	}
}

func TestDownsample_NonZeroOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 14, 24))
	out := Downsample(src, 2)
	b := out.Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 || b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("got bounds %v", b)
	}
}
