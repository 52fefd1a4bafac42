// Package geometry holds the plane math of the analyzer: lines in polar form,
// corner ordering and the table homography. It has no OpenCV dependency.
package geometry

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrParallel is returned when two lines have no single intersection point.
var ErrParallel = errors.New("lines are parallel")

// Point is a sub-pixel 2D point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Image rounds p to the nearest pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Line is a line in Hough normal form: x*cos(Theta) + y*sin(Theta) = Rho.
type Line struct {
	Rho   float64
	Theta float64
}

// IsVertical reports whether the line is closer to vertical than to horizontal.
func (l Line) IsVertical() bool {
	return math.Abs(math.Cos(l.Theta)) > math.Abs(math.Sin(l.Theta))
}

// Distance returns the perpendicular distance from p to the line.
func (l Line) Distance(p Point) float64 {
	return math.Abs(p.X*math.Cos(l.Theta) + p.Y*math.Sin(l.Theta) - l.Rho)
}

// XAt returns the x coordinate where the line crosses row y. ok is false for horizontal lines.
func (l Line) XAt(y float64) (x float64, ok bool) {
	c := math.Cos(l.Theta)
	if math.Abs(c) < 1e-9 {
		return 0, false
	}
	return (l.Rho - y*math.Sin(l.Theta)) / c, true
}

// Foot returns the foot of the perpendicular dropped from the origin onto the line.
func (l Line) Foot() Point {
	return Pt(l.Rho*math.Cos(l.Theta), l.Rho*math.Sin(l.Theta))
}

// Intersect solves the two line equations. Returns ErrParallel when the
// determinant vanishes.
func Intersect(a, b Line) (Point, error) {
	ca, sa := math.Cos(a.Theta), math.Sin(a.Theta)
	cb, sb := math.Cos(b.Theta), math.Sin(b.Theta)

	det := ca*sb - sa*cb
	if math.Abs(det) < 1e-9 {
		return Point{}, errors.Wrapf(ErrParallel, "Intersect: (%.1f, %.3f) and (%.1f, %.3f)", a.Rho, a.Theta, b.Rho, b.Theta)
	}

	x := (a.Rho*sb - b.Rho*sa) / det
	y := (ca*b.Rho - cb*a.Rho) / det
	return Pt(x, y), nil
}

// SortCorners orders four points top-left, top-right, bottom-right, bottom-left:
// the two smallest y values form the top pair, each pair is then sorted by x.
func SortCorners(pts [4]Point) [4]Point {
	s := pts[:]
	sort.SliceStable(s, func(i, j int) bool { return s[i].Y < s[j].Y })

	top := []Point{s[0], s[1]}
	bottom := []Point{s[2], s[3]}
	sort.SliceStable(top, func(i, j int) bool { return top[i].X < top[j].X })
	sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].X < bottom[j].X })

	return [4]Point{top[0], top[1], bottom[1], bottom[0]}
}

// Bounds returns the smallest integer rectangle containing every point.
func Bounds(pts []Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
