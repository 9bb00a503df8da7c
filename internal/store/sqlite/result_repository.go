package sqlite

import (
	"database/sql"
	"fmt"
	"math"

	"pointeval/internal/models"
)

// ResultRepository implements store.ResultRepository for SQLite. Undefined
// (NaN) metrics are stored as NULL so the report can surface them.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new SQLite result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveRun persists a finalized run and its ordered image results in a single
// transaction.
func (r *ResultRepository) SaveRun(run models.Run, results []models.ImageResult) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (id, started_at, detector, classifier, enhanced)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.Detector, run.Classifier, run.Enhanced); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for seq, res := range results {
		resultID, err := r.insertImageResult(tx, run.ID, seq, res)
		if err != nil {
			return err
		}
		if err := r.insertMatches(tx, resultID, "proposals", res.Proposals); err != nil {
			return err
		}
		if err := r.insertMatches(tx, resultID, "detections", res.Detections); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ResultRepository) insertImageResult(tx *sql.Tx, runID string, seq int, res models.ImageResult) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO image_results (
			run_id, seq, image_id, annotated, threshold, scale, width, height,
			proposal_precision, proposal_recall, proposal_fscore, proposal_detected,
			detection_precision, detection_recall, detection_fscore, detection_detected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, seq, res.ImageID, res.Annotated, res.Threshold, res.Scale, res.Width, res.Height,
		nullFloat(res.ProposalMetrics.Precision), nullFloat(res.ProposalMetrics.Recall),
		nullFloat(res.ProposalMetrics.FScore), res.ProposalMetrics.Detected,
		nullFloat(res.DetectionMetrics.Precision), nullFloat(res.DetectionMetrics.Recall),
		nullFloat(res.DetectionMetrics.FScore), res.DetectionMetrics.Detected)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image result: %w", err)
	}
	return result.LastInsertId()
}

func (r *ResultRepository) insertMatches(tx *sql.Tx, resultID int64, stage string, m models.MatchResult) error {
	stmt, err := tx.Prepare(`
		INSERT INTO match_points (result_id, stage, kind, idx, x, y, partner)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range m.Points {
		if _, err := stmt.Exec(resultID, stage, "gt", i, p.Point.X, p.Point.Y, p.Detection); err != nil {
			return fmt.Errorf("failed to insert ground-truth point: %w", err)
		}
	}
	for j, d := range m.Detections {
		c := d.Record.Box.Centroid()
		if _, err := stmt.Exec(resultID, stage, "det", j, c.X, c.Y, d.GroundTruth); err != nil {
			return fmt.Errorf("failed to insert detection point: %w", err)
		}
	}
	return nil
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}
