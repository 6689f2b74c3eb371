package exif

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/okulov/photonorm/core"
)

func jpegWithOrientation(t *testing.T, orientation uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	jpg := buf.Bytes()
	app1 := []byte{
		0xFF, 0xE1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00,
		orientation, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	out := append([]byte{}, jpg[:2]...)
	out = append(out, app1...)
	return append(out, jpg[2:]...)
}

func TestReadOrientation(t *testing.T) {
	rd := NewReader()
	ctx := context.Background()

	for code := uint8(1); code <= 8; code++ {
		got := rd.ReadOrientation(ctx, bytes.NewReader(jpegWithOrientation(t, code)))
		if got != core.Orientation(code) {
			t.Errorf("code %d: got %v", code, got)
		}
	}
}

func TestReadOrientation_NoMetadata(t *testing.T) {
	rd := NewReader()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	if got := rd.ReadOrientation(context.Background(), &buf); got != core.OrientationNormal {
		t.Errorf("got %v, want normal", got)
	}
}

func TestReadOrientation_NeverFails(t *testing.T) {
	rd := NewReader()
	ctx := context.Background()
	inputs := []string{
		"",
		"garbage",
		"\xff\xd8\xff\xe1\x00\x08Exif",         // truncated APP1
		strings.Repeat("\xff\xd8", 100),        // marker soup
	}
	for i, in := range inputs {
		if got := rd.ReadOrientation(ctx, strings.NewReader(in)); got != core.OrientationNormal {
			t.Errorf("input %d: got %v, want normal", i, got)
		}
	}
}

func TestReadOrientation_OutOfRangeCode(t *testing.T) {
	rd := NewReader()
	got := rd.ReadOrientation(context.Background(), bytes.NewReader(jpegWithOrientation(t, 9)))
	if got != core.OrientationNormal {
		t.Errorf("out-of-range code: got %v, want normal", got)
	}
}

func TestReadOrientation_PrefixBound(t *testing.T) {
	rd := &Reader{MaxPrefix: 16}
	// The orientation tag sits beyond the allowed prefix, so it is skipped.
	got := rd.ReadOrientation(context.Background(), bytes.NewReader(jpegWithOrientation(t, 6)))
	if got != core.OrientationNormal {
		t.Errorf("got %v, want normal when metadata is out of reach", got)
	}
}
