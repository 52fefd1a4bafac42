package balls

import (
	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Locate runs the coarse circle search on a segmented frame. Returns utils.ErrNoCircles when nothing is found.
func Locate(masked gocv.Mat) ([]Circle, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(masked, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, 3)

	circles := houghCircles(blurred, float64(blurred.Rows()/16), utils.CoarseMinRadius, utils.CoarseMaxRadius)
	if len(circles) == 0 {
		return nil, errors.Wrapf(utils.ErrNoCircles, "Locate: %dx%d frame", masked.Cols(), masked.Rows())
	}

	return circles, nil
}

// houghCircles runs the gradient Hough transform on a single channel image and parses its output.
func houghCircles(src gocv.Mat, minDist float64, minRadius, maxRadius int) []Circle {
	mat := gocv.NewMat()
	defer mat.Close()

	gocv.HoughCirclesWithParams(
		src,
		&mat,
		gocv.HoughGradient,
		1, // dp
		minDist,
		utils.CoarseParam1,
		utils.CoarseParam2,
		minRadius,
		maxRadius,
	)

	circles := make([]Circle, 0, mat.Cols())
	for i := 0; i < mat.Cols(); i++ {
		v := mat.GetVecfAt(0, i)
		if len(v) > 2 {
			circles = append(circles, Circle{
				Center: geometry.Pt(float64(v[0]), float64(v[1])),
				Radius: float64(v[2]),
			})
		}
	}

	return circles
}
