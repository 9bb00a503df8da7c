package matching

import (
	"github.com/mitroadmaps/gomapinfer/common"

	"pointeval/internal/models"
)

// Mask reports whether a point lies inside the evaluation region of interest.
type Mask func(common.Point) bool

// PolygonMask builds a Mask from an ROI polygon. Fewer than three vertices
// means no restriction.
func PolygonMask(roi common.Polygon) Mask {
	if len(roi) < 3 {
		return func(common.Point) bool { return true }
	}
	return func(p common.Point) bool {
		return roi.Contains(p)
	}
}

// Match assigns ground-truth points to detection centroids by repeatedly
// taking the globally smallest remaining distance not exceeding threshold.
// Ties prefer the lowest ground-truth index, then the lowest detection index,
// so the assignment is deterministic (and intentionally not a min-cost
// matching).
//
// Ground-truth points outside the mask are dropped entirely: they appear in
// neither assignment sequence and never count as false negatives.
func Match(groundTruth []common.Point, detections []models.DetectionRecord, roi Mask, threshold float64) models.MatchResult {
	var result models.MatchResult

	for _, p := range groundTruth {
		if roi != nil && !roi(p) {
			continue
		}
		result.Points = append(result.Points, models.PointAssignment{
			Point:     p,
			Detection: models.Unmatched,
		})
	}

	result.Detections = make([]models.DetectionAssignment, len(detections))
	centroids := make([]common.Point, len(detections))
	for j, d := range detections {
		result.Detections[j] = models.DetectionAssignment{
			Record:      d,
			GroundTruth: models.Unmatched,
		}
		centroids[j] = d.Box.Centroid()
	}

	dist := make([][]float64, len(result.Points))
	for i := range result.Points {
		dist[i] = make([]float64, len(centroids))
		for j, c := range centroids {
			dist[i][j] = result.Points[i].Point.Distance(c)
		}
	}

	for {
		bestI, bestJ := -1, -1
		best := threshold
		// Row-major scan with strict improvement keeps the lowest
		// (ground truth, detection) index pair on equal distances.
		for i := range dist {
			if result.Points[i].Detection != models.Unmatched {
				continue
			}
			for j := range dist[i] {
				if result.Detections[j].GroundTruth != models.Unmatched {
					continue
				}
				if d := dist[i][j]; d <= threshold && (bestI == -1 || d < best) {
					best, bestI, bestJ = d, i, j
				}
			}
		}
		if bestI == -1 {
			break
		}
		result.Points[bestI].Detection = bestJ
		result.Detections[bestJ].GroundTruth = bestI
	}

	return result
}
