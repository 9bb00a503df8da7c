package runner

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"pointeval/internal/cache"
	"pointeval/internal/config"
	"pointeval/internal/errs"
	"pointeval/internal/geometry"
	"pointeval/internal/logger"
	"pointeval/internal/models"
	"pointeval/internal/scale"
	"pointeval/internal/store"
)

type fakeProposer struct {
	records []models.DetectionRecord
	calls   int
	scale   float64
	path    string
}

func (f *fakeProposer) Propose(imagePath string, scaleFactor float64) ([]models.DetectionRecord, error) {
	f.calls++
	f.scale = scaleFactor
	f.path = imagePath
	return f.records, nil
}

type fakeClassifier struct {
	records []models.DetectionRecord
	calls   int
}

func (f *fakeClassifier) Classify(imagePath string, proposals []models.DetectionRecord) ([]models.DetectionRecord, error) {
	f.calls++
	if f.records != nil {
		return f.records, nil
	}
	return proposals, nil
}

type fakeProber struct{}

func (fakeProber) Dimensions(imagePath string) (int, int, error) {
	return 640, 480, nil
}

func det(x, y float64) models.DetectionRecord {
	return models.DetectionRecord{
		Box: geometry.Box{X: x - 1, Y: y - 1, Width: 2, Height: 2},
	}
}

type fixture struct {
	cfg        *config.Config
	proposer   *fakeProposer
	classifier *fakeClassifier
	results    *store.Store
	runner     *Runner
}

func newFixture(t *testing.T, annotations map[string]string, refBoxes map[string][]geometry.Box, skipInvalid bool) *fixture {
	t.Helper()

	annDir := t.TempDir()
	for name, content := range annotations {
		if err := os.WriteFile(filepath.Join(annDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write annotation: %v", err)
		}
	}

	cfg := &config.Config{
		ImageDirectory:      t.TempDir(),
		AnnotationDirectory: annDir,
		Annotator:           "annotator1",
		DetectorID:          "acf-default",
		ClassifierID:        "cnn-default",
		WindowSize:          64,
		SkipInvalid:         skipInvalid,
	}

	log, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	f := &fixture{
		cfg:        cfg,
		proposer:   &fakeProposer{},
		classifier: &fakeClassifier{},
		results:    store.New(),
	}
	f.runner = New(cfg, log, scale.NewEstimator(cfg.WindowSize, nil, false),
		refBoxes, cache.NewMemoryStore(), f.proposer, f.classifier, fakeProber{},
		f.results, nil, "test-run")
	return f
}

const validAnnotation = `{
	"roi": [[0, 0], [200, 0], [200, 200], [0, 200]],
	"annotators": {"annotator1": [[10, 10], [50, 50]]}
}`

// Reference boxes with diagonals 3x4=5 and 6x8=10: threshold = 7.5,
// scale = ceil(64 / (5/sqrt(2))) = 19.
var validRefs = map[string][]geometry.Box{
	"frame_0001.jpg": {{Width: 3, Height: 4}, {Width: 6, Height: 8}},
}

func TestRunner_EndToEnd(t *testing.T) {
	f := newFixture(t, map[string]string{"frame_0001.jpg.json": validAnnotation}, validRefs, false)
	f.proposer.records = []models.DetectionRecord{det(11, 11), det(90, 90), det(51, 49)}

	if err := f.runner.Run([]string{"frame_0001.jpg"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	finalized := f.results.Finalize()
	if len(finalized) != 1 {
		t.Fatalf("expected 1 result, got %d", len(finalized))
	}
	res := finalized[0]

	if res.ImageID != "frame_0001.jpg" {
		t.Errorf("image ID = %s", res.ImageID)
	}
	if res.Scale != 19 {
		t.Errorf("scale = %v, expected 19", res.Scale)
	}
	if res.Threshold != 7.5 {
		t.Errorf("threshold = %v, expected 7.5", res.Threshold)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Errorf("dimensions = %dx%d, expected 640x480", res.Width, res.Height)
	}
	if res.Annotated != 2 {
		t.Errorf("annotated = %d, expected 2", res.Annotated)
	}

	// (11,11) and (51,49) match within threshold 7.5; (90,90) stays false
	// positive. Classifier passed proposals through, so both stages agree.
	for _, m := range []models.Metrics{res.ProposalMetrics, res.DetectionMetrics} {
		if math.Abs(m.Precision-2.0/3.0) > 1e-9 {
			t.Errorf("precision = %v, expected 2/3", m.Precision)
		}
		if m.Recall != 1.0 {
			t.Errorf("recall = %v, expected 1.0", m.Recall)
		}
		if math.Abs(m.FScore-0.8) > 1e-9 {
			t.Errorf("f_score = %v, expected 0.8", m.FScore)
		}
	}

	if f.proposer.scale != 19 {
		t.Errorf("proposer invoked with scale %v, expected 19", f.proposer.scale)
	}
	wantPath := filepath.Join(f.cfg.ImageDirectory, "frame_0001.jpg")
	if f.proposer.path != wantPath {
		t.Errorf("proposer invoked with path %s, expected %s", f.proposer.path, wantPath)
	}
}

func TestRunner_CacheMemoizesStages(t *testing.T) {
	f := newFixture(t, map[string]string{"frame_0001.jpg.json": validAnnotation}, validRefs, false)
	f.proposer.records = []models.DetectionRecord{det(11, 11)}

	// The same image twice in one run: identical cache keys, one computation.
	if err := f.runner.Run([]string{"frame_0001.jpg", "frame_0001.jpg"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if f.proposer.calls != 1 {
		t.Errorf("proposer invoked %d times, expected 1", f.proposer.calls)
	}
	if f.classifier.calls != 1 {
		t.Errorf("classifier invoked %d times, expected 1", f.classifier.calls)
	}
	if f.results.Len() != 2 {
		t.Errorf("store holds %d results, expected 2", f.results.Len())
	}
}

func TestRunner_AbortsOnBadAnnotation(t *testing.T) {
	f := newFixture(t, map[string]string{
		"frame_0001.jpg.json": `{"annotators": {"somebody": [[1, 1]]}}`,
	}, validRefs, false)

	err := f.runner.Run([]string{"frame_0001.jpg"})
	if err == nil {
		t.Fatal("expected the run to abort on an annotation format error")
	}
	if errs.CodeOf(err) != errs.CodeAnnotationFormat {
		t.Errorf("expected ANNOTATION_FORMAT, got %v", err)
	}
	if f.results.Len() != 0 {
		t.Errorf("store holds %d results after abort, expected 0", f.results.Len())
	}
}

func TestRunner_SkipInvalidContinues(t *testing.T) {
	f := newFixture(t, map[string]string{
		"frame_0001.jpg.json": `{"annotators": {"somebody": [[1, 1]]}}`,
		"frame_0002.jpg.json": validAnnotation,
	}, map[string][]geometry.Box{
		"frame_0002.jpg": {{Width: 3, Height: 4}},
	}, true)
	f.proposer.records = []models.DetectionRecord{det(11, 11)}

	if err := f.runner.Run([]string{"frame_0001.jpg", "frame_0002.jpg"}); err != nil {
		t.Fatalf("Run returned error with SkipInvalid set: %v", err)
	}

	finalized := f.results.Finalize()
	if len(finalized) != 1 {
		t.Fatalf("expected 1 result, got %d", len(finalized))
	}
	if finalized[0].ImageID != "frame_0002.jpg" {
		t.Errorf("kept result for %s, expected frame_0002.jpg", finalized[0].ImageID)
	}
}

func TestRunner_MissingReferenceBoxes(t *testing.T) {
	f := newFixture(t, map[string]string{"frame_0001.jpg.json": validAnnotation},
		map[string][]geometry.Box{}, false)

	err := f.runner.Run([]string{"frame_0001.jpg"})
	if err == nil {
		t.Fatal("expected error for missing reference boxes")
	}
	if errs.CodeOf(err) != errs.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRunner_DegenerateReferenceBoxes(t *testing.T) {
	f := newFixture(t, map[string]string{"frame_0001.jpg.json": validAnnotation},
		map[string][]geometry.Box{
			"frame_0001.jpg": {{Width: 0, Height: 10}},
		}, false)

	err := f.runner.Run([]string{"frame_0001.jpg"})
	if err == nil {
		t.Fatal("expected error for degenerate reference boxes")
	}
	if errs.CodeOf(err) != errs.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
