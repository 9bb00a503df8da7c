package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pointeval/internal/annotation"
	"pointeval/internal/cache"
	"pointeval/internal/config"
	"pointeval/internal/logger"
	"pointeval/internal/models"
	"pointeval/internal/progress"
	"pointeval/internal/runner"
	"pointeval/internal/scale"
	"pointeval/internal/stages"
	"pointeval/internal/store"
	"pointeval/internal/store/sqlite"
)

// App wires the evaluation pipeline together: configuration, stages, cache,
// result store and the optional progress feed.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	proposer   *stages.DNNProposer
	classifier *stages.DNNClassifier
	db         *sqlite.DB
	repository store.ResultRepository
	results    *store.Store
	hub        *progress.Hub
	runner     *runner.Runner
	run        models.Run
}

// NewApp loads configuration and constructs every component. Missing model
// artifacts or unreadable dataset tables fail here, before any image is
// processed.
func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	overrides, err := annotation.LoadScaleOverrides(cfg.ScaleOverridesPath)
	if err != nil {
		return nil, err
	}
	refBoxes, err := annotation.LoadReferenceBoxes(cfg.ReferenceBoxesPath)
	if err != nil {
		return nil, err
	}
	estimator := scale.NewEstimator(cfg.WindowSize, overrides, cfg.UseScaleOverrides)

	cacheStore, err := cache.NewDirStore(cfg.CacheDirectory, log)
	if err != nil {
		return nil, err
	}

	proposer, err := stages.NewDNNProposer(cfg.DetectorModel, cfg.DetectorConfig, cfg.Enhance, cfg.ConfidenceThreshold, log)
	if err != nil {
		return nil, err
	}
	classifier, err := stages.NewDNNClassifier(cfg.ClassifierModel, cfg.ClassifierConfig, cfg.ConfidenceThreshold, log)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.ResultsPath)
	if err != nil {
		return nil, err
	}

	results := store.New()

	var hub *progress.Hub
	if cfg.ProgressPort > 0 {
		hub = progress.NewHub(log)
	}

	run := models.Run{
		ID:         uuid.New().String(),
		StartedAt:  time.Now(),
		Detector:   cfg.DetectorID,
		Classifier: cfg.ClassifierID,
		Enhanced:   cfg.Enhance,
	}

	return &App{
		config:     cfg,
		logger:     log,
		proposer:   proposer,
		classifier: classifier,
		db:         db,
		repository: sqlite.NewResultRepository(db),
		results:    results,
		hub:        hub,
		runner:     runner.New(cfg, log, estimator, refBoxes, cacheStore, proposer, classifier, stages.GoCVProber{}, results, hub, run.ID),
		run:        run,
	}, nil
}

// Run evaluates the given images, or every image in the configured image
// directory when none are given, then persists the finalized results.
func (a *App) Run(imageIDs []string) error {
	if len(imageIDs) == 0 {
		var err error
		imageIDs, err = a.listImages()
		if err != nil {
			return err
		}
	}

	if a.hub != nil {
		go a.hub.Run()
		server := progress.NewServer(a.hub, a.results, a.logger)
		go func() {
			addr := fmt.Sprintf(":%d", a.config.ProgressPort)
			if err := http.ListenAndServe(addr, server.Routes()); err != nil {
				a.logger.Error("progress server stopped: %v", err)
			}
		}()
		a.logger.Info("progress feed on port %d", a.config.ProgressPort)
	}

	if err := a.runner.Run(imageIDs); err != nil {
		return err
	}

	finalized := a.results.Finalize()
	if err := a.repository.SaveRun(a.run, finalized); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	a.logger.Info("run %s: persisted %d image results to %s", a.run.ID, len(finalized), a.config.ResultsPath)
	return nil
}

// Close releases the networks and the results database.
func (a *App) Close() {
	a.proposer.Close()
	a.classifier.Close()
	a.db.Close()
	a.logger.Close()
}

// listImages returns the image files in the configured directory in sorted
// order, which fixes the processing order of the run.
func (a *App) listImages() ([]string, error) {
	entries, err := os.ReadDir(a.config.ImageDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to list image directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
