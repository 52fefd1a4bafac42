package minimap

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	pocketRadius    = 14
	borderThickness = 8
	trailRadius     = 2
	highlightRadius = 3
)

// State renders minimaps for consecutive frames of one video and remembers every position drawn so far.
// The trail only grows, until Reset.
type State struct {
	projector *Projector
	palette   Palette
	trail     []geometry.Point
}

// NewState returns an empty minimap state drawing through the given projector.
func NewState(projector *Projector, palette Palette) *State {
	return &State{projector: projector, palette: palette, trail: make([]geometry.Point, 0)}
}

// Trail returns a copy of all positions rendered since the last Reset.
func (s *State) Trail() []geometry.Point {
	trail := make([]geometry.Point, len(s.trail))
	copy(trail, s.trail)
	return trail
}

// Reset forgets the trail.
func (s *State) Reset() {
	s.trail = s.trail[:0]
}

// Render draws the minimap of a frame: felt, the trail (current positions included), the balls
// colored by class each with a dot of the color sampled from the warped frame, pockets and border.
// The returned Mat must be closed by the caller. An empty frame fails with utils.ErrMinimap and leaves the trail untouched.
func (s *State) Render(frame gocv.Mat, markers []Marker) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), errors.Wrap(utils.ErrMinimap, "Render: empty frame")
	}

	warped := s.projector.Warp(frame)
	defer warped.Close()

	canvas := gocv.Zeros(utils.CanonicalHeight, utils.CanonicalWidth, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&canvas, image.Rect(0, 0, utils.CanonicalWidth, utils.CanonicalHeight), s.palette.Felt, -1)

	for _, m := range markers {
		s.trail = append(s.trail, m.Position)
	}
	for _, p := range s.trail {
		gocv.Circle(&canvas, p.Image(), trailRadius, s.palette.Trail, -1)
	}

	colors := s.palette.ClassColors()
	for _, m := range markers {
		c, ok := colors[m.Class]
		if !ok {
			continue
		}
		center := m.Position.Image()
		gocv.Circle(&canvas, center, utils.MinimapBallRadius, c, -1)
		gocv.Circle(&canvas, center, utils.MinimapBallRadius, s.palette.Pocket, 1)

		if sampled, ok := sample(warped, center); ok {
			gocv.Circle(&canvas, center, highlightRadius, sampled, -1)
		}
	}

	s.drawFurniture(&canvas)

	return canvas, nil
}

// drawFurniture draws the six pockets and the cushions' border.
func (s *State) drawFurniture(canvas *gocv.Mat) {
	w, h := utils.CanonicalWidth, utils.CanonicalHeight
	pockets := []image.Point{
		image.Pt(0, 0), image.Pt(w, 0),
		image.Pt(0, h/2), image.Pt(w, h/2),
		image.Pt(0, h), image.Pt(w, h),
	}

	gocv.Rectangle(canvas, image.Rect(0, 0, w, h), s.palette.Border, borderThickness)
	for _, p := range pockets {
		gocv.Circle(canvas, p, pocketRadius, s.palette.Pocket, -1)
	}
}

// sample returns the color of the warped frame at p, when p lies inside it.
func sample(warped gocv.Mat, p image.Point) (color.RGBA, bool) {
	if warped.Empty() || p.X < 0 || p.Y < 0 || p.X >= warped.Cols() || p.Y >= warped.Rows() {
		return color.RGBA{}, false
	}
	v := warped.GetVecbAt(p.Y, p.X)
	if len(v) < 3 {
		return color.RGBA{}, false
	}
	return color.RGBA{R: v[2], G: v[1], B: v[0]}, true
}

// Overlay pastes the minimap, scaled by scale, into the frame's top-right corner.
// Nothing is drawn when the scaled minimap does not fit the frame.
func Overlay(frame *gocv.Mat, minimap gocv.Mat, scale float64) {
	if minimap.Empty() || scale <= 0 {
		return
	}

	thumb := gocv.NewMat()
	defer thumb.Close()
	gocv.Resize(minimap, &thumb, image.Pt(0, 0), scale, scale, gocv.InterpolationArea)

	if thumb.Cols() > frame.Cols() || thumb.Rows() > frame.Rows() {
		return
	}

	roi := frame.Region(image.Rect(frame.Cols()-thumb.Cols(), 0, frame.Cols(), thumb.Rows()))
	defer roi.Close()
	thumb.CopyTo(&roi)
}
