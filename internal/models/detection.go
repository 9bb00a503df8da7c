package models

import "pointeval/internal/geometry"

// DetectionRecord is a single output of the proposal or classification stage:
// a box plus the stage's confidence score.
type DetectionRecord struct {
	Box        geometry.Box `json:"box"`
	Confidence float64      `json:"confidence"`
}
