package balls

import (
	"image"
	"image/color"
	"math"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var white = color.RGBA{255, 255, 255, 0}

// BoundingRect returns the corners' axis aligned bounding box clamped to the frame.
func BoundingRect(frame gocv.Mat, corners [4]geometry.Point) image.Rectangle {
	return geometry.Bounds(corners[:]).Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
}

// TableMask returns a copy of frame where everything outside the corner polygon is black.
func TableMask(frame gocv.Mat, corners [4]geometry.Point) gocv.Mat {
	poly := make([]image.Point, 0, 4)
	for _, c := range corners {
		poly = append(poly, c.Image())
	}

	mask := gocv.Zeros(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pv.Close()
	gocv.FillPoly(&mask, pv, white)

	masked := gocv.Zeros(frame.Rows(), frame.Cols(), frame.Type())
	frame.CopyToWithMask(&masked, mask)
	return masked
}

// Segment isolates ball-like regions of the table. It returns the frame's colors
// where the regions are, black anywhere else (including outside the table).
//
// Two masks are built on the table's bounding rectangle and OR-ed:
//   - a two cluster k-means on the Lab image, keeping the non felt cluster
//   - filled external contours of the Canny edges
//
// Connected components larger than MaxComponentArea (cushions, hands, cue) are removed.
func Segment(frame gocv.Mat, corners [4]geometry.Point) (gocv.Mat, error) {
	rect := BoundingRect(frame, corners)
	if rect.Empty() {
		return gocv.NewMat(), errors.Wrapf(utils.ErrGeometry, "Segment: table rectangle %v outside frame %dx%d", rect, frame.Cols(), frame.Rows())
	}

	table := TableMask(frame, corners)
	defer table.Close()

	region := table.Region(rect)
	crop := region.Clone()
	region.Close()
	defer crop.Close()

	clusters := clusterMask(crop)
	defer clusters.Close()

	edges := edgeMask(crop)
	defer edges.Close()

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.BitwiseOr(clusters, edges, &combined)

	removeLargeComponents(&combined, utils.MaxComponentArea)

	canvas := gocv.Zeros(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)
	defer canvas.Close()
	dst := canvas.Region(rect)
	combined.CopyTo(&dst)
	dst.Close()

	masked := gocv.Zeros(frame.Rows(), frame.Cols(), frame.Type())
	table.CopyToWithMask(&masked, canvas)

	return masked, nil
}

// clusterMask splits the crop into two Lab clusters and returns cluster 0 as a mask,
// inverted when cluster 0 turns out to be the bright felt.
func clusterMask(crop gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(crop, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(blurred, &lab, gocv.ColorBGRToLab)

	h, w := lab.Rows(), lab.Cols()
	pixels := gocv.NewMatWithSize(h*w, 3, gocv.MatTypeCV32F)
	defer pixels.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			vec := lab.GetVecbAt(y, x)
			pixels.SetFloatAt(idx, 0, float32(vec[0]))
			pixels.SetFloatAt(idx, 1, float32(vec[1]))
			pixels.SetFloatAt(idx, 2, float32(vec[2]))
		}
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	//same seed, same clusters for the same frame
	gocv.SetRNGSeed(utils.KMeansSeed)
	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 10, 1.0)
	gocv.KMeans(pixels, 2, &labels, criteria, 3, gocv.KMeansRandomCenters, &centers)

	mask := gocv.Zeros(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels.GetIntAt(y*w+x, 0) == 0 {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}

	mean := crop.MeanWithMask(mask)
	if math.Sqrt(mean.Val1*mean.Val1+mean.Val2*mean.Val2+mean.Val3*mean.Val3) > utils.BrightClusterNorm {
		gocv.BitwiseNot(mask, &mask)
	}

	return mask
}

// edgeMask returns the thick outlines of every external contour found on the crop's edges.
func edgeMask(crop gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	median := gocv.NewMat()
	defer median.Close()
	gocv.MedianBlur(gray, &median, 5)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(median, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(edges, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	outlines := gocv.Zeros(crop.Rows(), crop.Cols(), gocv.MatTypeCV8U)
	defer outlines.Close()
	gocv.DrawContours(&outlines, contours, -1, white, 3)

	mask := gocv.NewMat()
	gocv.Dilate(outlines, &mask, kernel)
	return mask
}

// removeLargeComponents zeroes every 8-connected component of mask whose area exceeds maxArea.
func removeLargeComponents(mask *gocv.Mat, maxArea int) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(*mask, &labels, &stats, &centroids)

	large := make(map[int32]bool)
	for i := 1; i < n; i++ {
		if int(stats.GetIntAt(i, int(gocv.CCStatArea))) > maxArea {
			large[int32(i)] = true
		}
	}
	if len(large) == 0 {
		return
	}

	for y := 0; y < mask.Rows(); y++ {
		for x := 0; x < mask.Cols(); x++ {
			if large[labels.GetIntAt(y, x)] {
				mask.SetUCharAt(y, x, 0)
			}
		}
	}
}
