// Package table finds the pool table's playing surface on the first frame of a video.
package table

import (
	"image"
	"math"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Geometry is the table surface found on the first frame. It is never modified afterwards.
type Geometry struct {
	// Corners ordered top-left, top-right, bottom-right, bottom-left (frame pixels).
	Corners [4]geometry.Point
	// Homography maps frame pixels onto the canonical CanonicalWidth x CanonicalHeight rectangle.
	Homography *geometry.Homography
}

// CanonicalCorners are the corners of the top-down table space, ordered like Geometry.Corners.
func CanonicalCorners() [4]geometry.Point {
	return [4]geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(utils.CanonicalWidth, 0),
		geometry.Pt(utils.CanonicalWidth, utils.CanonicalHeight),
		geometry.Pt(0, utils.CanonicalHeight),
	}
}

// NewGeometry builds the table geometry out of ordered corners.
func NewGeometry(corners [4]geometry.Point) (*Geometry, error) {
	canonical := CanonicalCorners()

	//homography is solved from TL, TR, BL, BR
	src := [4]geometry.Point{corners[0], corners[1], corners[3], corners[2]}
	dst := [4]geometry.Point{canonical[0], canonical[1], canonical[3], canonical[2]}

	h, err := geometry.NewHomography(src, dst)
	if err != nil {
		return nil, errors.Wrapf(utils.ErrGeometry, "NewGeometry: %v", err)
	}

	return &Geometry{Corners: corners, Homography: h}, nil
}

// Bounds returns the corners' bounding rectangle clipped to the given frame size.
func (g *Geometry) Bounds(frameSize image.Point) image.Rectangle {
	return geometry.Bounds(g.Corners[:]).Intersect(image.Rect(0, 0, frameSize.X, frameSize.Y))
}

// Polygon returns the corners as integer points, ready for drawing or filling.
func (g *Geometry) Polygon() []image.Point {
	pts := make([]image.Point, 0, 4)
	for _, c := range g.Corners {
		pts = append(pts, c.Image())
	}
	return pts
}

// Detect runs the one shot table corner search on the first frame:
// gray -> blur -> Canny -> Hough lines -> boundary selection -> intersections.
// Any missing side is fatal and returned as utils.ErrGeometry.
func Detect(frame gocv.Mat) (*Geometry, error) {
	if frame.Empty() {
		return nil, errors.Wrap(utils.ErrGeometry, "Detect: empty frame")
	}

	lines := houghLines(frame)
	center := geometry.Pt(float64(frame.Cols())/2, float64(frame.Rows())/2)

	b := SelectBoundaries(lines, center)
	if !b.Complete() {
		return nil, errors.Wrapf(utils.ErrGeometry, "Detect: %d lines, missing %v", len(lines), b.Missing())
	}

	corners, err := b.Corners()
	if err != nil {
		return nil, err
	}

	return NewGeometry(corners)
}

func houghLines(frame gocv.Mat) []geometry.Line {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	linesMat := gocv.NewMat()
	defer linesMat.Close()
	gocv.HoughLines(edges, &linesMat, 1, math.Pi/180, utils.HoughLinesThreshold)

	lines := make([]geometry.Line, 0, linesMat.Rows())
	for i := 0; i < linesMat.Rows(); i++ {
		v := linesMat.GetVecfAt(i, 0)
		if len(v) < 2 {
			continue
		}
		lines = append(lines, geometry.Line{Rho: float64(v[0]), Theta: float64(v[1])})
	}

	return lines
}
