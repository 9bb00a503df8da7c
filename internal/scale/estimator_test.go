package scale

import (
	"errors"
	"math"
	"testing"

	"pointeval/internal/errs"
	"pointeval/internal/geometry"
)

func TestEstimateScale(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		refs       []geometry.Box
		expected   float64
	}{
		{
			// diagonal 50, min size 50/sqrt(2) ~ 35.36, 64/35.36 ~ 1.81
			name:       "single box",
			windowSize: 64,
			refs:       []geometry.Box{{Width: 30, Height: 40}},
			expected:   2,
		},
		{
			// smallest diagonal 5 wins: min size ~ 3.54, 64/3.54 ~ 18.1
			name:       "smallest diagonal wins",
			windowSize: 64,
			refs:       []geometry.Box{{Width: 30, Height: 40}, {Width: 3, Height: 4}},
			expected:   19,
		},
		{
			name:       "large objects need no upscaling",
			windowSize: 64,
			refs:       []geometry.Box{{Width: 300, Height: 400}},
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator(tt.windowSize, nil, false)
			got, err := e.EstimateScale("img.jpg", tt.refs)
			if err != nil {
				t.Fatalf("EstimateScale returned error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("EstimateScale = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestEstimateScale_OverridePrecedence(t *testing.T) {
	refs := []geometry.Box{{Width: 30, Height: 40}}
	overrides := Overrides{"img.jpg": 7}

	e := NewEstimator(64, overrides, true)
	got, err := e.EstimateScale("img.jpg", refs)
	if err != nil {
		t.Fatalf("EstimateScale returned error: %v", err)
	}
	if got != 7 {
		t.Errorf("override enabled: EstimateScale = %v, expected 7", got)
	}

	// Absent entry falls back to the computed value.
	got, err = e.EstimateScale("other.jpg", refs)
	if err != nil {
		t.Fatalf("EstimateScale returned error: %v", err)
	}
	if got != 2 {
		t.Errorf("no override entry: EstimateScale = %v, expected 2", got)
	}

	// Disabled overrides are ignored even when present.
	e = NewEstimator(64, overrides, false)
	got, err = e.EstimateScale("img.jpg", refs)
	if err != nil {
		t.Fatalf("EstimateScale returned error: %v", err)
	}
	if got != 2 {
		t.Errorf("overrides disabled: EstimateScale = %v, expected 2", got)
	}
}

func TestEstimateScale_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		refs []geometry.Box
	}{
		{"empty set", nil},
		{"zero width", []geometry.Box{{Width: 0, Height: 10}}},
		{"negative height", []geometry.Box{{Width: 10, Height: -1}}},
		{"one bad box among good", []geometry.Box{{Width: 10, Height: 10}, {Width: 10, Height: 0}}},
	}

	e := NewEstimator(64, Overrides{"img.jpg": 7}, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EstimateScale("img.jpg", tt.refs)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ee *errs.Error
			if !errors.As(err, &ee) || ee.Code != errs.CodeInvalidInput {
				t.Errorf("expected INVALID_INPUT error, got %v", err)
			}
		})
	}
}

func TestDistanceThreshold_Median(t *testing.T) {
	// Diagonals 5, 10, 13.
	odd := []geometry.Box{
		{Width: 6, Height: 8},
		{Width: 3, Height: 4},
		{Width: 5, Height: 12},
	}
	got, err := DistanceThreshold(odd)
	if err != nil {
		t.Fatalf("DistanceThreshold returned error: %v", err)
	}
	if got != 10 {
		t.Errorf("odd count: DistanceThreshold = %v, expected 10", got)
	}

	// Diagonals 5, 10, 13, 15: median is (10+13)/2.
	even := append([]geometry.Box{{Width: 9, Height: 12}}, odd...)
	got, err = DistanceThreshold(even)
	if err != nil {
		t.Fatalf("DistanceThreshold returned error: %v", err)
	}
	if got != 11.5 {
		t.Errorf("even count: DistanceThreshold = %v, expected 11.5", got)
	}
}

func TestDistanceThreshold_PermutationInvariant(t *testing.T) {
	boxes := []geometry.Box{
		{Width: 6, Height: 8},
		{Width: 3, Height: 4},
		{Width: 5, Height: 12},
		{Width: 9, Height: 12},
	}

	base, err := DistanceThreshold(boxes)
	if err != nil {
		t.Fatalf("DistanceThreshold returned error: %v", err)
	}

	permutations := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, perm := range permutations {
		shuffled := make([]geometry.Box, len(boxes))
		for i, j := range perm {
			shuffled[i] = boxes[j]
		}
		got, err := DistanceThreshold(shuffled)
		if err != nil {
			t.Fatalf("DistanceThreshold returned error: %v", err)
		}
		if got != base {
			t.Errorf("permutation %v: DistanceThreshold = %v, expected %v", perm, got, base)
		}
	}
}

func TestDistanceThreshold_SingleBox(t *testing.T) {
	refs := []geometry.Box{{Width: 3, Height: 4}}
	got, err := DistanceThreshold(refs)
	if err != nil {
		t.Fatalf("DistanceThreshold returned error: %v", err)
	}
	if math.Abs(got-5) > 1e-12 {
		t.Errorf("DistanceThreshold = %v, expected 5", got)
	}
}
