package core

import "testing"

func TestSampleSizeFor(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
		budget int
		want   int
	}{
		{"both axes within budget", Bounds{Width: 500, Height: 500}, 2048, 1},
		{"exactly at budget", Bounds{Width: 2048, Height: 2048}, 2048, 1},
		{"just above budget", Bounds{Width: 2049, Height: 2049}, 2048, 1},
		{"typical 12MP photo", Bounds{Width: 4000, Height: 3000}, 2048, 1},
		{"four times the budget", Bounds{Width: 8192, Height: 8192}, 2048, 4},
		{"eight times the budget", Bounds{Width: 16384, Height: 16384}, 2048, 8},
		{"short axis governs", Bounds{Width: 16384, Height: 2100}, 2048, 1},
		{"panorama", Bounds{Width: 20000, Height: 1000}, 2048, 1},
		{"small budget", Bounds{Width: 4000, Height: 3000}, 256, 8},
		{"tiny budget", Bounds{Width: 4000, Height: 3000}, 100, 16},
		{"zero budget degrades to 1", Bounds{Width: 4000, Height: 3000}, 0, 1},
		{"negative budget degrades to 1", Bounds{Width: 4000, Height: 3000}, -10, 1},
		{"invalid bounds degrade to 1", Bounds{Width: 0, Height: 3000}, 2048, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleSizeFor(tt.bounds, tt.budget); got != tt.want {
				t.Errorf("SampleSizeFor(%s, %d) = %d, want %d", tt.bounds, tt.budget, got, tt.want)
			}
		})
	}
}

func TestSampleSizeFor_Properties(t *testing.T) {
	// For every factor the short axis after sampling must still cover the
	// budget, and doubling the factor once more must undershoot it.
	for _, b := range []Bounds{
		{4000, 3000}, {8192, 6144}, {1023, 1023}, {2048, 4096}, {30000, 20000},
	} {
		for _, budget := range []int{256, 512, 1024, 2048} {
			s := SampleSizeFor(b, budget)
			if s&(s-1) != 0 {
				t.Errorf("bounds %s budget %d: factor %d is not a power of two", b, budget, s)
			}
			shorter := b.Width
			if b.Height < shorter {
				shorter = b.Height
			}
			if s > 1 && shorter/s < budget {
				t.Errorf("bounds %s budget %d: factor %d drops short axis to %d, below budget",
					b, budget, s, shorter/s)
			}
			if shorter/(2*s) >= budget {
				t.Errorf("bounds %s budget %d: factor %d is not maximal", b, budget, s)
			}
		}
	}
}
