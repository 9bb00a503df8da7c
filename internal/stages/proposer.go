package stages

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"pointeval/internal/errs"
	"pointeval/internal/geometry"
	"pointeval/internal/logger"
	"pointeval/internal/models"
)

// DNNProposer runs a detection network over the rescaled image in the role of
// the first-stage proposal generator.
type DNNProposer struct {
	net           gocv.Net
	enhance       bool
	minConfidence float64
	logger        *logger.Logger
}

// NewDNNProposer loads the detection network. A missing model or config file
// is a fatal setup error: the run must abort before processing any image.
func NewDNNProposer(modelPath, configPath string, enhance bool, minConfidence float64, log *logger.Logger) (*DNNProposer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, errs.Setup(fmt.Sprintf("detector model not found: %s", modelPath), nil)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errs.Setup(fmt.Sprintf("detector config not found: %s", configPath), nil)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, errs.Setup("failed to load detection network", nil)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, errs.Setup("failed to set network backend", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, errs.Setup("failed to set network target", err)
	}

	log.Info("detection network loaded from %s", modelPath)
	return &DNNProposer{
		net:           net,
		enhance:       enhance,
		minConfidence: minConfidence,
		logger:        log,
	}, nil
}

// Propose rescales the image by scaleFactor, runs the network, and maps the
// resulting boxes back to original image coordinates.
func (p *DNNProposer) Propose(imagePath string, scaleFactor float64) ([]models.DetectionRecord, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image: %s", imagePath)
	}
	defer mat.Close()

	work := gocv.NewMat()
	defer work.Close()
	gocv.Resize(mat, &work, image.Point{}, scaleFactor, scaleFactor, gocv.InterpolationLinear)

	if p.enhance {
		equalize(&work)
	}

	blob := gocv.BlobFromImage(work, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	p.net.SetInput(blob, "")
	output := p.net.Forward("")
	defer output.Close()

	reshaped := output.Reshape(1, int(output.Total()/7))
	defer reshaped.Close()

	workW := float64(work.Cols())
	workH := float64(work.Rows())

	var records []models.DetectionRecord
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := float64(reshaped.GetFloatAt(i, 2))
		if confidence < p.minConfidence {
			continue
		}
		// Output coordinates are normalized over the working image; map them
		// back through the scale factor.
		x1 := float64(reshaped.GetFloatAt(i, 3)) * workW / scaleFactor
		y1 := float64(reshaped.GetFloatAt(i, 4)) * workH / scaleFactor
		x2 := float64(reshaped.GetFloatAt(i, 5)) * workW / scaleFactor
		y2 := float64(reshaped.GetFloatAt(i, 6)) * workH / scaleFactor

		records = append(records, models.DetectionRecord{
			Box:        geometry.Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1},
			Confidence: confidence,
		})
	}

	p.logger.Info("proposed %d regions for %s at scale %g", len(records), imagePath, scaleFactor)
	return records, nil
}

// Close releases the network.
func (p *DNNProposer) Close() {
	p.net.Close()
}

// equalize applies grayscale histogram equalization in place, the optional
// image enhancement step.
func equalize(mat *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*mat, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)
	gocv.CvtColor(gray, mat, gocv.ColorGrayToBGR)
}
