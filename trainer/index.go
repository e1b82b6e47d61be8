package trainer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Segment identifies a contiguous labeled audio span. Immutable once indexed.
type Segment struct {
	FileID string  `yaml:"file_id" json:"file_id"`
	Start  float64 `yaml:"start" json:"start"`
	End    float64 `yaml:"end" json:"end"`
	Label  string  `yaml:"label" json:"label"`
}

// Duration returns the span length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// IndexParams contains filtering parameters for the sample index
type IndexParams struct {
	MinDuration      float64 `yaml:"min_duration" json:"min_duration"`             // Per-segment lower bound in seconds (default: 0.5)
	MaxDuration      float64 `yaml:"max_duration" json:"max_duration"`             // Per-segment upper bound in seconds (default: 1.5)
	LabelMinDuration float64 `yaml:"label_min_duration" json:"label_min_duration"` // Cumulative seconds a label needs to be eligible (default: 60)
}

// DefaultIndexParams returns the standard duration filtering parameters
func DefaultIndexParams() IndexParams {
	return IndexParams{
		MinDuration:      0.5,
		MaxDuration:      1.5,
		LabelMinDuration: 60.0,
	}
}

// SegmentIndex enumerates labeled audio segments with duration filtering.
// A label is eligible when its filtered segments total at least
// LabelMinDuration seconds and it keeps at least 2 segments, so it can
// always supply a positive pair.
type SegmentIndex struct {
	params   IndexParams
	byLabel  map[string][]Segment
	eligible []string
	total    int
}

// NewSegmentIndex builds an index over the given segments, dropping spans
// outside the duration bounds. A zero bound disables that side of the
// filter.
func NewSegmentIndex(segments []Segment, params IndexParams) *SegmentIndex {
	idx := &SegmentIndex{
		params:  params,
		byLabel: make(map[string][]Segment),
	}

	for _, seg := range segments {
		d := seg.Duration()
		if params.MinDuration > 0 && d < params.MinDuration {
			continue
		}
		if params.MaxDuration > 0 && d > params.MaxDuration {
			continue
		}
		idx.byLabel[seg.Label] = append(idx.byLabel[seg.Label], seg)
		idx.total++
	}

	for label, segs := range idx.byLabel {
		if len(segs) < 2 {
			continue
		}
		cumulative := 0.0
		for _, seg := range segs {
			cumulative += seg.Duration()
		}
		if cumulative >= params.LabelMinDuration {
			idx.eligible = append(idx.eligible, label)
		}
	}
	sort.Strings(idx.eligible)

	return idx
}

// EligibleLabels returns the sorted labels that meet the cumulative
// duration requirement
func (idx *SegmentIndex) EligibleLabels() []string {
	out := make([]string, len(idx.eligible))
	copy(out, idx.eligible)
	return out
}

// Segments returns the filtered segments for a label
func (idx *SegmentIndex) Segments(label string) []Segment {
	return idx.byLabel[label]
}

// NumSegments returns the total number of segments that passed filtering
func (idx *SegmentIndex) NumSegments() int {
	return idx.total
}

// Params returns the filtering parameters the index was built with
func (idx *SegmentIndex) Params() IndexParams {
	return idx.params
}

// Manifest is the on-disk YAML listing of labeled segments
type Manifest struct {
	Segments []Segment `yaml:"segments"`
}

// LoadManifest reads a segment manifest from a YAML file
func LoadManifest(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(manifest.Segments) == 0 {
		return nil, fmt.Errorf("manifest %s contains no segments", path)
	}

	return manifest.Segments, nil
}
