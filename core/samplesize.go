package core

// SampleSizeFor computes the power-of-two decode reduction factor for an
// image with the given bounds and a target budget (the largest dimension the
// decoded raster must still cover, typically 2x the final output dimension).
//
// The factor is the largest power of two keeping the smaller axis at or above
// the budget, so the decoded image is never smaller than the later resize
// target on either axis. Halving the smaller axis once before comparing
// errs toward extra resolution rather than an upsample later.
func SampleSizeFor(b Bounds, targetBudget int) int {
	if targetBudget <= 0 || !b.Valid() {
		return 1
	}
	if b.Width <= targetBudget && b.Height <= targetBudget {
		return 1
	}

	half := b.Width
	if b.Height < half {
		half = b.Height
	}
	half /= 2

	sample := 1
	for half/sample >= targetBudget {
		sample *= 2
	}
	return sample
}
