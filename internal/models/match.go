package models

import "github.com/mitroadmaps/gomapinfer/common"

// Unmatched marks a ground-truth point or detection without an assigned partner.
const Unmatched = -1

// PointAssignment is an annotated point together with the index of its
// assigned detection, or Unmatched.
type PointAssignment struct {
	Point     common.Point `json:"point"`
	Detection int          `json:"detection"`
}

// DetectionAssignment is a detection together with the index of its assigned
// ground-truth point, or Unmatched.
type DetectionAssignment struct {
	Record      DetectionRecord `json:"record"`
	GroundTruth int             `json:"ground_truth"`
}

// MatchResult holds the two parallel assignment sequences produced by the
// matching engine. Points contains only the annotated points inside the region
// of interest; points outside it are dropped before matching and appear
// nowhere. Matched point indices and matched detection indices are always in
// bijection.
type MatchResult struct {
	Points     []PointAssignment     `json:"points"`
	Detections []DetectionAssignment `json:"detections"`
}

// MatchedPoints returns the number of ground-truth points with an assigned
// detection (true positives).
func (m MatchResult) MatchedPoints() int {
	n := 0
	for _, p := range m.Points {
		if p.Detection != Unmatched {
			n++
		}
	}
	return n
}

// MatchedDetections returns the number of detections with an assigned
// ground-truth point. Always equal to MatchedPoints.
func (m MatchResult) MatchedDetections() int {
	n := 0
	for _, d := range m.Detections {
		if d.GroundTruth != Unmatched {
			n++
		}
	}
	return n
}
