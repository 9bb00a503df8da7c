package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	ImageDirectory      string
	AnnotationDirectory string
	Annotator           string // expected annotator name for this dataset
	ReferenceBoxesPath  string
	ScaleOverridesPath  string
	UseScaleOverrides   bool

	DetectorModel  string
	DetectorConfig string
	DetectorID     string // identifier used in cache keys
	WindowSize     int    // detector training window size in pixels

	ClassifierModel  string
	ClassifierConfig string
	ClassifierID     string

	ConfidenceThreshold float64
	Enhance             bool // histogram-equalize images before detection

	CacheDirectory string
	ResultsPath    string

	ProgressPort int  // 0 disables the live progress server
	SkipInvalid  bool // skip images with validation errors instead of aborting
	LogDirectory string
}

func Load() *Config {
	return &Config{
		ImageDirectory:      getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		AnnotationDirectory: getEnv("ANNOTATION_DIR", filepath.Join(".", "annotations")),
		Annotator:           getEnv("ANNOTATOR", "annotator1"),
		ReferenceBoxesPath:  getEnv("REFERENCE_BOXES", filepath.Join(".", "annotations", "reference_boxes.json")),
		ScaleOverridesPath:  getEnv("SCALE_OVERRIDES", ""),
		UseScaleOverrides:   getEnvAsBool("USE_SCALE_OVERRIDES", false),
		DetectorModel:       getEnv("DETECTOR_MODEL", filepath.Join(".", "models", "detector.pb")),
		DetectorConfig:      getEnv("DETECTOR_CONFIG", filepath.Join(".", "models", "detector.pbtxt")),
		DetectorID:          getEnv("DETECTOR_ID", "acf-default"),
		WindowSize:          getEnvAsInt("WINDOW_SIZE", 64),
		ClassifierModel:     getEnv("CLASSIFIER_MODEL", filepath.Join(".", "models", "classifier.pb")),
		ClassifierConfig:    getEnv("CLASSIFIER_CONFIG", filepath.Join(".", "models", "classifier.pbtxt")),
		ClassifierID:        getEnv("CLASSIFIER_ID", "cnn-default"),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		Enhance:             getEnvAsBool("ENHANCE", false),
		CacheDirectory:      getEnv("CACHE_DIR", filepath.Join(".", "cache")),
		ResultsPath:         getEnv("RESULTS_DB", filepath.Join(".", "results.db")),
		ProgressPort:        getEnvAsInt("PROGRESS_PORT", 0),
		SkipInvalid:         getEnvAsBool("SKIP_INVALID", false),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
