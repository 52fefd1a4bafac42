// Package balls finds, refines and classifies the balls lying on the table in a single frame.
//
// A frame goes through:
//
//	Segment  -> masked color image of ball-like regions inside the table
//	Locate   -> coarse circle candidates (Hough, radius 5..12)
//	Refine   -> precise circles re-detected around every candidate (radius 5..15)
//	Classify -> White / Black / Solid / Striped by mean color norm
//
// Every stage only reads its inputs and returns new values; nothing is kept between frames.
package balls

import (
	"fmt"
	"image"
	"math"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
)

// Class is the appearance class of a ball.
type Class int

const (
	Unknown Class = iota
	White
	Black
	Solid
	Striped
)

func (c Class) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Solid:
		return "solid"
	case Striped:
		return "striped"
	default:
		return "unknown"
	}
}

// Label returns the detection file label of the class (1=White, 2=Black, 3=Solid, 4=Striped), 0 for Unknown.
func (c Class) Label() int {
	switch c {
	case White, Black, Solid, Striped:
		return int(c)
	}
	return 0
}

// ClassFromLabel is the inverse of Class.Label.
func ClassFromLabel(label int) (Class, error) {
	c := Class(label)
	if c.Label() == 0 {
		return Unknown, fmt.Errorf("ClassFromLabel: invalid label %d", label)
	}
	return c, nil
}

// Circle is a raw Hough detection.
type Circle struct {
	Center geometry.Point
	Radius float64
}

// Ball is one refined, possibly classified ball of a frame.
type Ball struct {
	Center geometry.Point
	// Radius already includes the clamp and inflation applied during refinement.
	Radius float64
	Class  Class
	// ColorNorm is the L2 norm of the mean BGR color inside the ball's disc.
	ColorNorm float64
}

// BoundingBox returns the ball's square bounding box in frame pixels.
func (b Ball) BoundingBox() image.Rectangle {
	r := b.Radius
	return image.Rect(
		int(math.Round(b.Center.X-r)),
		int(math.Round(b.Center.Y-r)),
		int(math.Round(b.Center.X+r)),
		int(math.Round(b.Center.Y+r)),
	)
}

// DetectionSet is the ordered list of balls found on frame Index.
type DetectionSet struct {
	Index int
	Balls []Ball
}

// Count returns how many balls of class c the set holds.
func (s DetectionSet) Count(c Class) int {
	n := 0
	for _, b := range s.Balls {
		if b.Class == c {
			n++
		}
	}
	return n
}
