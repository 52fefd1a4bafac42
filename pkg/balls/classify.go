package balls

import (
	"image"
	"image/color"
	"math"

	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"gocv.io/x/gocv"
)

// MeasureColors fills ColorNorm of every ball with the L2 norm of the mean BGR color inside its disc.
func MeasureColors(frame gocv.Mat, balls []Ball) []Ball {
	measured := make([]Ball, len(balls))

	for i, b := range balls {
		mask := gocv.Zeros(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
		gocv.Circle(&mask, b.Center.Image(), int(math.Round(b.Radius)), color.RGBA{255, 255, 255, 0}, -1)

		mean := frame.MeanWithMask(mask)
		mask.Close()

		b.ColorNorm = math.Sqrt(mean.Val1*mean.Val1 + mean.Val2*mean.Val2 + mean.Val3*mean.Val3)
		measured[i] = b
	}

	return measured
}

// Classify labels balls by their ColorNorm relative to the whole frame:
//   - the brightest ball(s) are White (cue ball)
//   - the darkest ball(s) are Black (8-ball)
//   - others above StripedNorm are Striped, below it Solid
//
// A ball matching no rule (norm exactly StripedNorm) is dropped.
func Classify(balls []Ball) []Ball {
	if len(balls) == 0 {
		return nil
	}

	minNorm, maxNorm := balls[0].ColorNorm, balls[0].ColorNorm
	for _, b := range balls[1:] {
		minNorm = math.Min(minNorm, b.ColorNorm)
		maxNorm = math.Max(maxNorm, b.ColorNorm)
	}

	classified := make([]Ball, 0, len(balls))
	for _, b := range balls {
		n := b.ColorNorm
		switch {
		case n == maxNorm:
			b.Class = White
		case n == minNorm:
			b.Class = Black
		case n > minNorm && n < maxNorm && n > utils.StripedNorm:
			b.Class = Striped
		case n > minNorm && n < utils.StripedNorm:
			b.Class = Solid
		default:
			continue
		}
		classified = append(classified, b)
	}

	return classified
}

// ClassMask draws every classified ball as a filled disc of its palette color on a black canvas of the given size.
func ClassMask(size image.Point, balls []Ball, colors map[Class]color.RGBA) gocv.Mat {
	canvas := gocv.Zeros(size.Y, size.X, gocv.MatTypeCV8UC3)
	for _, b := range balls {
		c, ok := colors[b.Class]
		if !ok {
			continue
		}
		gocv.Circle(&canvas, b.Center.Image(), int(math.Round(b.Radius)), c, -1)
	}
	return canvas
}
