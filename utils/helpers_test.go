package utils

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"bmp", []byte("BM\x36\x00\x00\x00"), "bmp"},
		{"text", []byte("hello, world"), "unknown"},
		{"too short", []byte{0xFF, 0xD8}, "unknown"},
		{"empty", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{"landscape bound", 4000, 3000, 1024, 1024, 768},
		{"portrait bound", 3000, 4000, 1024, 768, 1024},
		{"square bound", 2048, 2048, 1024, 1024, 1024},
		{"already within", 800, 600, 1024, 800, 600},
		{"exactly at bound", 1024, 768, 1024, 1024, 768},
		{"extreme panorama keeps a visible short axis", 10000, 10, 1024, 1024, 1},
		{"no limit", 4000, 3000, 0, 4000, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.w, tt.h, tt.maxDim)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitDimensions(%d, %d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.maxDim, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitDimensions_AspectRatioPreserved(t *testing.T) {
	for _, d := range []struct{ w, h int }{{4000, 3000}, {1920, 1080}, {3333, 2222}} {
		w, h := FitDimensions(d.w, d.h, 1024)
		srcRatio := float64(d.w) / float64(d.h)
		dstRatio := float64(w) / float64(h)
		if diff := srcRatio - dstRatio; diff > 0.01 || diff < -0.01 {
			t.Errorf("%dx%d -> %dx%d: aspect ratio drifted from %.4f to %.4f",
				d.w, d.h, w, h, srcRatio, dstRatio)
		}
	}
}
