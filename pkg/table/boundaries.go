package table

import (
	"math"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
)

// Boundaries holds the selected line for every side of the table. A nil side was not found.
type Boundaries struct {
	Up, Down, Left, Right *geometry.Line
}

// Complete reports whether all four sides were found.
func (b Boundaries) Complete() bool {
	return b.Up != nil && b.Down != nil && b.Left != nil && b.Right != nil
}

// Missing lists the names of the sides that were not found.
func (b Boundaries) Missing() []string {
	missing := make([]string, 0)
	if b.Up == nil {
		missing = append(missing, "up")
	}
	if b.Down == nil {
		missing = append(missing, "down")
	}
	if b.Left == nil {
		missing = append(missing, "left")
	}
	if b.Right == nil {
		missing = append(missing, "right")
	}
	return missing
}

// candidate keeps the line closest to the center among lines farther than a threshold.
type candidate struct {
	line *geometry.Line
	dist float64
}

func (c *candidate) offer(l geometry.Line, dist, threshold float64) {
	if dist <= threshold {
		return
	}
	if c.line == nil || dist < c.dist {
		line := l
		c.line = &line
		c.dist = dist
	}
}

// SelectBoundaries picks the table's up, down, left and right boundary among
// Hough lines of a frame whose center is given.
//
// Primary pass: a line is vertical when |cos θ| > |sin θ|; vertical lines with
// ρ left of the center are "left", horizontal lines with ρ above it are "up".
// Vertical lines with negative ρ are not classified here.
// Each side keeps the nearest line that is still farther than BoundaryDistance.
//
// When a side is missing, lines with negative ρ (θ close to π) are re-read as
// vertical lines using the column where they cross the center row. When left is
// still missing, the threshold is relaxed to FallbackBoundaryDistance and lines
// whose perpendicular foot lies below-left of the center are accepted as left.
func SelectBoundaries(lines []geometry.Line, center geometry.Point) Boundaries {
	var up, down, left, right candidate

	for _, l := range lines {
		d := l.Distance(center)
		if l.IsVertical() {
			if l.Rho < 0 {
				continue
			}
			if l.Rho < center.X {
				left.offer(l, d, utils.BoundaryDistance)
			} else {
				right.offer(l, d, utils.BoundaryDistance)
			}
		} else {
			if l.Rho < center.Y {
				up.offer(l, d, utils.BoundaryDistance)
			} else {
				down.offer(l, d, utils.BoundaryDistance)
			}
		}
	}

	if up.line == nil || down.line == nil || left.line == nil || right.line == nil {
		var fbLeft, fbRight candidate
		for _, l := range lines {
			if l.Rho >= 0 {
				continue
			}
			x, ok := l.XAt(center.Y)
			if !ok {
				continue
			}
			d := l.Distance(center)
			if x < center.X {
				fbLeft.offer(l, d, utils.BoundaryDistance)
			} else {
				fbRight.offer(l, d, utils.BoundaryDistance)
			}
		}
		if left.line == nil {
			left = fbLeft
		}
		if right.line == nil {
			right = fbRight
		}
	}

	if left.line == nil {
		for _, l := range lines {
			if sameLine(up.line, l) || sameLine(down.line, l) || sameLine(right.line, l) {
				continue
			}
			foot := l.Foot()
			if foot.Y > center.Y && foot.X < center.X {
				left.offer(l, l.Distance(center), utils.FallbackBoundaryDistance)
			}
		}
	}

	return Boundaries{Up: up.line, Down: down.line, Left: left.line, Right: right.line}
}

func sameLine(picked *geometry.Line, l geometry.Line) bool {
	return picked != nil && *picked == l
}

// Corners intersects the four boundaries and returns the corners ordered
// top-left, top-right, bottom-right, bottom-left.
func (b Boundaries) Corners() ([4]geometry.Point, error) {
	var corners [4]geometry.Point
	if !b.Complete() {
		return corners, errors.Wrapf(utils.ErrGeometry, "Corners: missing %v", b.Missing())
	}

	pairs := [4][2]geometry.Line{
		{*b.Up, *b.Left},
		{*b.Up, *b.Right},
		{*b.Down, *b.Left},
		{*b.Down, *b.Right},
	}
	for i, pair := range pairs {
		p, err := geometry.Intersect(pair[0], pair[1])
		if err != nil {
			return corners, errors.Wrapf(utils.ErrGeometry, "Corners: %v", err)
		}
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			return corners, errors.Wrap(utils.ErrGeometry, "Corners: invalid intersection")
		}
		corners[i] = p
	}

	return geometry.SortCorners(corners), nil
}
