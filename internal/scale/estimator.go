package scale

import (
	"math"
	"sort"

	"pointeval/internal/errs"
	"pointeval/internal/geometry"
)

// Overrides maps image identifier to a manually chosen scale factor. Loaded
// once per run, read-only afterwards; absent entries mean "no override".
type Overrides map[string]float64

// Estimator derives the per-image working scale from reference object sizes.
type Estimator struct {
	windowSize   float64
	overrides    Overrides
	useOverrides bool
}

// NewEstimator creates an Estimator for a detector trained at windowSize
// pixels. When useOverrides is set, a table entry replaces the computed scale
// unconditionally.
func NewEstimator(windowSize int, overrides Overrides, useOverrides bool) *Estimator {
	return &Estimator{
		windowSize:   float64(windowSize),
		overrides:    overrides,
		useOverrides: useOverrides,
	}
}

// EstimateScale computes the scale factor for one image from its reference
// boxes: ceil(windowSize / (minDiagonal / sqrt(2))). A manual override, when
// enabled and present, replaces the computed value.
func (e *Estimator) EstimateScale(imageID string, refs []geometry.Box) (float64, error) {
	if err := validateRefs(refs); err != nil {
		return 0, err
	}

	if e.useOverrides {
		if s, ok := e.overrides[imageID]; ok {
			return s, nil
		}
	}

	minDiag := refs[0].Diagonal()
	for _, b := range refs[1:] {
		if d := b.Diagonal(); d < minDiag {
			minDiag = d
		}
	}
	minSize := minDiag / math.Sqrt2

	return math.Ceil(e.windowSize / minSize), nil
}

// DistanceThreshold returns the evaluation distance tolerance for one image:
// the median diagonal of its unscaled reference boxes. Manual scale overrides
// never affect it. Invariant under permutation of the input.
func DistanceThreshold(refs []geometry.Box) (float64, error) {
	if err := validateRefs(refs); err != nil {
		return 0, err
	}

	diags := make([]float64, len(refs))
	for i, b := range refs {
		diags[i] = b.Diagonal()
	}
	sort.Float64s(diags)

	n := len(diags)
	if n%2 == 1 {
		return diags[n/2], nil
	}
	return (diags[n/2-1] + diags[n/2]) / 2, nil
}

func validateRefs(refs []geometry.Box) error {
	if len(refs) == 0 {
		return errs.InvalidInput("empty reference box set")
	}
	for _, b := range refs {
		if !b.Valid() {
			return errs.InvalidInput("reference box with non-positive dimensions")
		}
	}
	return nil
}
