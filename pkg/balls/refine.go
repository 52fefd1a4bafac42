package balls

import (
	"image"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Refine re-detects every coarse candidate inside a disc of RefineWindowRadius around its center.
// The search runs on the grayscale window first and on its red channel when gray finds nothing.
// A window where both fail makes the whole frame fail with utils.ErrRefinement.
func Refine(frame gocv.Mat, coarse []Circle) ([]Ball, error) {
	refined := make([]Ball, 0, len(coarse))

	for _, c := range coarse {
		found, err := refineOne(frame, c)
		if err != nil {
			return nil, err
		}

		for _, f := range found {
			refined = append(refined, Ball{Center: f.Center, Radius: AdjustRadius(f.Radius)})
		}
	}

	return refined, nil
}

// AdjustRadius clamps a too small measured radius and inflates the result.
func AdjustRadius(measured float64) float64 {
	if measured < utils.MinMeasuredRadius {
		measured = utils.ClampedRadius
	}
	return measured + utils.RadiusInflation
}

func refineOne(frame gocv.Mat, c Circle) ([]Circle, error) {
	center := c.Center.Image()
	r := utils.RefineWindowRadius
	rect := image.Rect(center.X-r, center.Y-r, center.X+r+1, center.Y+r+1).
		Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if rect.Empty() {
		return nil, errors.Wrapf(utils.ErrRefinement, "Refine: window around %v outside frame", center)
	}

	region := frame.Region(rect)
	defer region.Close()

	disc := gocv.Zeros(rect.Dy(), rect.Dx(), gocv.MatTypeCV8U)
	defer disc.Close()
	gocv.Circle(&disc, center.Sub(rect.Min), r, white, -1)

	window := gocv.Zeros(rect.Dy(), rect.Dx(), frame.Type())
	defer window.Close()
	region.CopyToWithMask(&window, disc)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(window, &gray, gocv.ColorBGRToGray)

	found := houghCircles(gray, float64(r), utils.RefineMinRadius, utils.RefineMaxRadius)
	if len(found) == 0 {
		channels := gocv.Split(window)
		found = houghCircles(channels[2], float64(r), utils.RefineMinRadius, utils.RefineMaxRadius)
		for _, ch := range channels {
			ch.Close()
		}
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(utils.ErrRefinement, "Refine: candidate at %v", center)
	}

	offset := geometry.Pt(float64(rect.Min.X), float64(rect.Min.Y))
	for i := range found {
		found[i].Center = geometry.Pt(found[i].Center.X+offset.X, found[i].Center.Y+offset.Y)
	}

	return found, nil
}
