package annotation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitroadmaps/gomapinfer/common"

	"pointeval/internal/errs"
)

// Per-image annotation file schema:
//
//	{
//	  "roi": [[x, y], ...],
//	  "annotators": {"name": [[x, y], ...]}
//	}
type imageFile struct {
	ROI        [][2]float64            `json:"roi"`
	Annotators map[string][][2]float64 `json:"annotators"`
}

// ImageAnnotation is the parsed, validated annotation for one image: the
// region-of-interest polygon and the expected annotator's ordered points.
type ImageAnnotation struct {
	ROI    common.Polygon
	Points []common.Point
}

// LoadImage reads the per-image annotation file and validates it. Exactly one
// annotator entry must be present and it must be the expected name; anything
// else is a format error.
func LoadImage(path, imageID, annotator string) (*ImageAnnotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.AnnotationFormat(imageID, fmt.Sprintf("cannot read annotation file: %v", err))
	}

	var f imageFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errs.AnnotationFormat(imageID, fmt.Sprintf("malformed annotation file: %v", err))
	}

	if len(f.Annotators) != 1 {
		return nil, errs.AnnotationFormat(imageID, fmt.Sprintf("expected exactly one annotator, got %d", len(f.Annotators)))
	}
	raw, ok := f.Annotators[annotator]
	if !ok {
		return nil, errs.AnnotationFormat(imageID, fmt.Sprintf("annotator %q not present", annotator))
	}

	ann := &ImageAnnotation{
		ROI:    make(common.Polygon, 0, len(f.ROI)),
		Points: make([]common.Point, 0, len(raw)),
	}
	for _, p := range f.ROI {
		ann.ROI = append(ann.ROI, common.Point{X: p[0], Y: p[1]})
	}
	for _, p := range raw {
		ann.Points = append(ann.Points, common.Point{X: p[0], Y: p[1]})
	}
	return ann, nil
}
