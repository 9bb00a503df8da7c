package cache

import (
	"fmt"
	"strconv"
	"strings"

	"pointeval/internal/models"
)

// Stage names the pipeline stage a cache entry belongs to.
type Stage string

const (
	StageProposals  Stage = "proposals"
	StageDetections Stage = "detections"
)

// Key identifies one cached pipeline output. Every parameter that affects the
// output is part of the key: a different scale factor or model identifier
// never reuses a prior entry.
type Key struct {
	ImageID  string
	Stage    Stage
	Scale    float64
	Model    string // detector or classifier identifier
	Enhanced bool
}

// String renders the deterministic identifier used as the entry filename.
func (k Key) String() string {
	enh := "plain"
	if k.Enhanced {
		enh = "enh"
	}
	return fmt.Sprintf("%s_%s_x%s_%s_%s",
		sanitize(k.ImageID), k.Stage,
		strconv.FormatFloat(k.Scale, 'g', -1, 64),
		sanitize(k.Model), enh)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, s)
}

// Store supplies cached detection records, computing and persisting them on
// miss. Implementations guarantee at most one computation per key per run and
// must never leave a partial entry behind a failed compute.
type Store interface {
	GetOrCompute(key Key, compute func() ([]models.DetectionRecord, error)) ([]models.DetectionRecord, error)
}
