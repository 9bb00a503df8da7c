package runner

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"pointeval/internal/annotation"
	"pointeval/internal/cache"
	"pointeval/internal/config"
	"pointeval/internal/errs"
	"pointeval/internal/geometry"
	"pointeval/internal/logger"
	"pointeval/internal/matching"
	"pointeval/internal/metrics"
	"pointeval/internal/models"
	"pointeval/internal/progress"
	"pointeval/internal/scale"
	"pointeval/internal/stages"
	"pointeval/internal/store"
)

// Runner drives the per-image evaluation pipeline: scale estimation, cached
// proposal/classification stages, point matching for both stages, metrics,
// and result accumulation. Images are processed strictly sequentially.
type Runner struct {
	cfg        *config.Config
	logger     *logger.Logger
	estimator  *scale.Estimator
	refBoxes   map[string][]geometry.Box
	cache      cache.Store
	proposer   stages.Proposer
	classifier stages.Classifier
	prober     stages.Prober
	results    *store.Store
	hub        *progress.Hub // nil when the progress feed is disabled
	runID      string
}

func New(cfg *config.Config, log *logger.Logger, estimator *scale.Estimator,
	refBoxes map[string][]geometry.Box, cacheStore cache.Store,
	proposer stages.Proposer, classifier stages.Classifier, prober stages.Prober,
	results *store.Store, hub *progress.Hub, runID string) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     log,
		estimator:  estimator,
		refBoxes:   refBoxes,
		cache:      cacheStore,
		proposer:   proposer,
		classifier: classifier,
		prober:     prober,
		results:    results,
		hub:        hub,
		runID:      runID,
	}
}

// Run evaluates the given images in order. Under the default policy any
// per-image failure aborts the run; with SkipInvalid set, non-fatal failures
// are logged and the image is skipped.
func (r *Runner) Run(imageIDs []string) error {
	r.logger.Info("run %s: evaluating %d images", r.runID, len(imageIDs))

	for _, id := range imageIDs {
		result, err := r.processImage(id)
		if err != nil {
			if r.cfg.SkipInvalid && !errs.IsFatal(err) {
				r.logger.Warning("skipping image %s: %v", id, err)
				continue
			}
			return fmt.Errorf("image %s: %w", id, err)
		}

		if err := r.results.Append(*result); err != nil {
			return errs.StoreFailed("failed to record image result", err)
		}
		r.publish(result)
	}

	return nil
}

func (r *Runner) processImage(id string) (*models.ImageResult, error) {
	ann, err := annotation.LoadImage(
		filepath.Join(r.cfg.AnnotationDirectory, id+".json"), id, r.cfg.Annotator)
	if err != nil {
		return nil, err
	}

	refs, ok := r.refBoxes[id]
	if !ok {
		return nil, errs.InvalidInput(fmt.Sprintf("no reference boxes for image %s", id))
	}

	// The threshold comes from the unscaled reference boxes; a manual scale
	// override never changes it.
	threshold, err := scale.DistanceThreshold(refs)
	if err != nil {
		return nil, err
	}
	scaleFactor, err := r.estimator.EstimateScale(id, refs)
	if err != nil {
		return nil, err
	}

	imagePath := filepath.Join(r.cfg.ImageDirectory, id)
	width, height, err := r.prober.Dimensions(imagePath)
	if err != nil {
		return nil, errs.StageFailed(id, "image probe", err)
	}

	proposals, err := r.cache.GetOrCompute(cache.Key{
		ImageID:  id,
		Stage:    cache.StageProposals,
		Scale:    scaleFactor,
		Model:    r.cfg.DetectorID,
		Enhanced: r.cfg.Enhance,
	}, func() ([]models.DetectionRecord, error) {
		return r.proposer.Propose(imagePath, scaleFactor)
	})
	if err != nil {
		return nil, errs.StageFailed(id, "proposal", err)
	}

	detections, err := r.cache.GetOrCompute(cache.Key{
		ImageID:  id,
		Stage:    cache.StageDetections,
		Scale:    scaleFactor,
		Model:    r.cfg.ClassifierID,
		Enhanced: r.cfg.Enhance,
	}, func() ([]models.DetectionRecord, error) {
		return r.classifier.Classify(imagePath, proposals)
	})
	if err != nil {
		return nil, errs.StageFailed(id, "classification", err)
	}

	mask := matching.PolygonMask(ann.ROI)
	proposalMatch := matching.Match(ann.Points, proposals, mask, threshold)
	detectionMatch := matching.Match(ann.Points, detections, mask, threshold)

	result := &models.ImageResult{
		ImageID:          id,
		Annotated:        len(proposalMatch.Points),
		Threshold:        threshold,
		Scale:            scaleFactor,
		Width:            width,
		Height:           height,
		Proposals:        proposalMatch,
		Detections:       detectionMatch,
		ProposalMetrics:  metrics.Summarize(proposalMatch),
		DetectionMetrics: metrics.Summarize(detectionMatch),
	}

	r.logger.Info("image %s: scale %g, threshold %.2f, %d proposals, %d detections",
		id, scaleFactor, threshold, len(proposals), len(detections))
	return result, nil
}

func (r *Runner) publish(result *models.ImageResult) {
	if r.hub == nil {
		return
	}

	message, err := json.Marshal(struct {
		RunID      string         `json:"run_id"`
		ImageID    string         `json:"image_id"`
		Proposals  models.Metrics `json:"proposals"`
		Detections models.Metrics `json:"detections"`
	}{r.runID, result.ImageID, result.ProposalMetrics, result.DetectionMetrics})
	if err != nil {
		r.logger.Error("failed to encode progress message: %v", err)
		return
	}
	r.hub.Broadcast(message)
}
