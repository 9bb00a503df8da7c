package metrics

import (
	"math"

	"pointeval/internal/models"
)

// Summarize reduces a matching to precision/recall/F-score and counts. A
// zero denominator yields NaN, never zero; the undefined value is carried
// through to the report.
func Summarize(m models.MatchResult) models.Metrics {
	tp := m.MatchedPoints()
	fn := len(m.Points) - tp
	fp := len(m.Detections) - m.MatchedDetections()

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)

	var fscore float64
	if sum := precision + recall; sum == 0 || math.IsNaN(sum) {
		fscore = math.NaN()
	} else {
		fscore = 2 * precision * recall / sum
	}

	return models.Metrics{
		Precision: precision,
		Recall:    recall,
		FScore:    fscore,
		Detected:  len(m.Detections),
		Annotated: len(m.Points),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}
