package balls

import (
	"github.com/chenBenjamin97/pool-analyzer/pkg/table"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Detector chains segmentation, coarse location, refinement and classification for the frames of one video.
// It only holds the table geometry, which never changes after the first frame.
type Detector struct {
	table *table.Geometry
}

// NewDetector returns a detector bound to the table found on the first frame.
func NewDetector(geom *table.Geometry) *Detector {
	return &Detector{table: geom}
}

// Detect returns the classified balls of the given frame.
// Failures are wrapped utils sentinels: ErrGeometry, ErrNoCircles or ErrRefinement.
func (d *Detector) Detect(frame gocv.Mat, index int) (DetectionSet, error) {
	set := DetectionSet{Index: index}
	if d.table == nil {
		return set, errors.New("Detect: detector has no table geometry")
	}

	masked, err := Segment(frame, d.table.Corners)
	if err != nil {
		return set, errors.Wrapf(err, "frame %d", index)
	}
	defer masked.Close()

	coarse, err := Locate(masked)
	if err != nil {
		return set, errors.Wrapf(err, "frame %d", index)
	}

	refined, err := Refine(frame, coarse)
	if err != nil {
		return set, errors.Wrapf(err, "frame %d", index)
	}

	set.Balls = Classify(MeasureColors(frame, refined))
	return set, nil
}
