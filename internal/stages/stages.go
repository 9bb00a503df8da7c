package stages

import (
	"fmt"

	"gocv.io/x/gocv"

	"pointeval/internal/models"
)

// Proposer is the external first-stage region-proposal generator. It runs on
// the image rescaled by scaleFactor and reports boxes in original image
// coordinates.
type Proposer interface {
	Propose(imagePath string, scaleFactor float64) ([]models.DetectionRecord, error)
}

// Classifier is the external second-stage discriminative scorer. It re-scores
// the proposals for an image and returns the confident subset.
type Classifier interface {
	Classify(imagePath string, proposals []models.DetectionRecord) ([]models.DetectionRecord, error)
}

// Prober reports image dimensions.
type Prober interface {
	Dimensions(imagePath string) (int, int, error)
}

// GoCVProber reads dimensions by decoding the image.
type GoCVProber struct{}

func (GoCVProber) Dimensions(imagePath string) (int, int, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return 0, 0, fmt.Errorf("failed to read image: %s", imagePath)
	}
	defer mat.Close()
	return mat.Cols(), mat.Rows(), nil
}
