// Package minimap draws the top-down view of the table: every ball projected onto the
// canonical CanonicalWidth x CanonicalHeight rectangle, over the trail of all previous positions.
package minimap

import (
	"image"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/table"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Marker is a ball position in canonical table space.
type Marker struct {
	Position geometry.Point
	Class    balls.Class
}

// Projector maps frame pixels onto the canonical table rectangle.
type Projector struct {
	h    *geometry.Homography
	warp gocv.Mat
}

// NewProjector builds a projector out of the table geometry. Close it when done.
func NewProjector(geom *table.Geometry) (*Projector, error) {
	if geom == nil || geom.Homography == nil {
		return nil, errors.Wrap(utils.ErrGeometry, "NewProjector: missing homography")
	}

	warp := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			warp.SetDoubleAt(i, j, geom.Homography.At(i, j))
		}
	}

	return &Projector{h: geom.Homography, warp: warp}, nil
}

// Close releases the projector's OpenCV matrix.
func (p *Projector) Close() error {
	return p.warp.Close()
}

// Project transforms every ball center into canonical table space.
func (p *Projector) Project(bs []balls.Ball) []Marker {
	markers := make([]Marker, 0, len(bs))
	for _, b := range bs {
		markers = append(markers, Marker{Position: p.h.Transform(b.Center), Class: b.Class})
	}
	return markers
}

// Warp returns the frame seen from above, CanonicalWidth x CanonicalHeight pixels.
func (p *Projector) Warp(frame gocv.Mat) gocv.Mat {
	warped := gocv.NewMat()
	gocv.WarpPerspective(frame, &warped, p.warp, image.Pt(utils.CanonicalWidth, utils.CanonicalHeight))
	return warped
}
