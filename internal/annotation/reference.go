package annotation

import (
	"encoding/json"
	"fmt"
	"os"

	"pointeval/internal/geometry"
	"pointeval/internal/scale"
)

// LoadReferenceBoxes reads the per-dataset reference-size store: image
// identifier to the small set of boxes characterizing typical object size.
// Schema: {"image-id": [[x, y, w, h], ...], ...}. Loaded once per run,
// read-only afterwards.
func LoadReferenceBoxes(path string) (map[string][]geometry.Box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read reference boxes: %w", err)
	}

	var raw map[string][][4]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed reference boxes: %w", err)
	}

	refs := make(map[string][]geometry.Box, len(raw))
	for id, boxes := range raw {
		out := make([]geometry.Box, len(boxes))
		for i, b := range boxes {
			out[i] = geometry.Box{X: b[0], Y: b[1], Width: b[2], Height: b[3]}
		}
		refs[id] = out
	}
	return refs, nil
}

// LoadScaleOverrides reads the manual scale-override table: image identifier
// to scale factor. An empty path yields an empty table.
func LoadScaleOverrides(path string) (scale.Overrides, error) {
	if path == "" {
		return scale.Overrides{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read scale overrides: %w", err)
	}

	var overrides scale.Overrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("malformed scale overrides: %w", err)
	}
	return overrides, nil
}
