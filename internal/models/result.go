package models

import (
	"encoding/json"
	"math"
	"time"
)

// Metrics summarizes one matching as scalar evaluation metrics. Precision,
// recall and f-score are NaN when their denominator is zero; the undefined
// value is kept explicit all the way into the report.
type Metrics struct {
	Precision float64
	Recall    float64
	FScore    float64
	Detected  int
	Annotated int
}

// MarshalJSON encodes undefined (NaN) metrics as null rather than dropping or
// zeroing them.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Precision *float64 `json:"precision"`
		Recall    *float64 `json:"recall"`
		FScore    *float64 `json:"f_score"`
		Detected  int      `json:"num_detected"`
		Annotated int      `json:"num_annotated"`
	}{
		Precision: nullable(m.Precision),
		Recall:    nullable(m.Recall),
		FScore:    nullable(m.FScore),
		Detected:  m.Detected,
		Annotated: m.Annotated,
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// ImageResult is the complete evaluation record for one image. Created once,
// appended to the run's result sequence, never mutated afterwards.
type ImageResult struct {
	ImageID          string      `json:"image_id"`
	Annotated        int         `json:"annotated"`
	Threshold        float64     `json:"threshold"`
	Scale            float64     `json:"scale"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Proposals        MatchResult `json:"proposals"`
	Detections       MatchResult `json:"detections"`
	ProposalMetrics  Metrics     `json:"proposal_metrics"`
	DetectionMetrics Metrics     `json:"detection_metrics"`
}

// Run identifies one evaluation run and the detector configuration it used.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Detector   string    `json:"detector"`
	Classifier string    `json:"classifier"`
	Enhanced   bool      `json:"enhanced"`
}
