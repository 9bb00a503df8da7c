package store

import "pointeval/internal/models"

// ResultRepository persists a finalized run for the external reporting tool.
type ResultRepository interface {
	SaveRun(run models.Run, results []models.ImageResult) error
}
