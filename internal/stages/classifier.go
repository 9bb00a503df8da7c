package stages

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"pointeval/internal/errs"
	"pointeval/internal/logger"
	"pointeval/internal/models"
)

// DNNClassifier re-scores proposals with a trained discriminative network,
// the second pipeline stage. Proposals scoring below the confidence threshold
// are dropped; the survivors keep their boxes with the classifier's score.
type DNNClassifier struct {
	net           gocv.Net
	minConfidence float64
	logger        *logger.Logger
}

// NewDNNClassifier loads the classification network. Missing artifacts are a
// fatal setup error.
func NewDNNClassifier(modelPath, configPath string, minConfidence float64, log *logger.Logger) (*DNNClassifier, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, errs.Setup(fmt.Sprintf("classifier model not found: %s", modelPath), nil)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errs.Setup(fmt.Sprintf("classifier config not found: %s", configPath), nil)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, errs.Setup("failed to load classification network", nil)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, errs.Setup("failed to set network backend", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, errs.Setup("failed to set network target", err)
	}

	log.Info("classification network loaded from %s", modelPath)
	return &DNNClassifier{
		net:           net,
		minConfidence: minConfidence,
		logger:        log,
	}, nil
}

// Classify crops each proposal from the image, scores it, and returns the
// confident subset.
func (c *DNNClassifier) Classify(imagePath string, proposals []models.DetectionRecord) ([]models.DetectionRecord, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image: %s", imagePath)
	}
	defer mat.Close()

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())

	var records []models.DetectionRecord
	for _, proposal := range proposals {
		b := proposal.Box
		rect := image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height)).Intersect(bounds)
		if rect.Empty() {
			continue
		}

		score, err := c.score(mat, rect)
		if err != nil {
			return nil, err
		}
		if score < c.minConfidence {
			continue
		}

		records = append(records, models.DetectionRecord{Box: b, Confidence: score})
	}

	c.logger.Info("classified %d of %d proposals for %s", len(records), len(proposals), imagePath)
	return records, nil
}

func (c *DNNClassifier) score(mat gocv.Mat, rect image.Rectangle) (float64, error) {
	region := mat.Region(rect)
	defer region.Close()

	blob := gocv.BlobFromImage(region, 1.0/255.0, image.Pt(64, 64), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	if output.Total() < 2 {
		return 0, fmt.Errorf("unexpected classifier output size: %d", output.Total())
	}
	// Binary classifier: index 1 is the object-class probability.
	return float64(output.GetFloatAt(0, 1)), nil
}

// Close releases the network.
func (c *DNNClassifier) Close() {
	c.net.Close()
}
