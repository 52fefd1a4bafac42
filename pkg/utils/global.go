package utils

//CanonicalWidth is the width of the top-down table space every minimap coordinate is expressed in
const CanonicalWidth = 400

//CanonicalHeight is the height of the top-down table space every minimap coordinate is expressed in
const CanonicalHeight = 800

//BoundaryDistance is the minimum distance (px) a table boundary line must keep from the frame center
const BoundaryDistance = 150.0

//FallbackBoundaryDistance is the relaxed distance used when the left boundary could not be found
const FallbackBoundaryDistance = 120.0

//HoughLinesThreshold is the accumulator vote threshold used when searching table boundary lines
const HoughLinesThreshold = 100

//MaxComponentArea is the area (px) above which a connected mask component is not a ball and gets removed
const MaxComponentArea = 3000

//BrightClusterNorm is the mean-color norm above which the chosen k-means cluster is the felt, not the balls
const BrightClusterNorm = 200.0

//StripedNorm splits non extreme balls: above it a ball is Striped, below it Solid
const StripedNorm = 200.0

//KMeansSeed seeds OpenCV's RNG before clustering so an identical frame always yields an identical mask
const KMeansSeed = 12345

//Coarse circle search parameters (whole table)
const (
	CoarseParam1    = 107
	CoarseParam2    = 10
	CoarseMinRadius = 5
	CoarseMaxRadius = 12
)

//Fine circle search parameters (local refinement window)
const (
	RefineWindowRadius = 30
	RefineMinRadius    = 5
	RefineMaxRadius    = 15
)

//MinMeasuredRadius is the measured radius under which a refined ball gets ClampedRadius instead
const MinMeasuredRadius = 6.5

//ClampedRadius replaces too small measured radii
const ClampedRadius = 7.1

//RadiusInflation compensates Hough's radius underestimation
const RadiusInflation = 2.0

//MinimapBallRadius is the radius balls are drawn with on the minimap
const MinimapBallRadius = 10

//FirstTag and LastTag name the artifacts written for the first and the penultimate frame
const (
	FirstTag = "first"
	LastTag  = "last"
)

//FailurePolicyAbort ends the whole run on the first failing frame (default)
const FailurePolicyAbort = "abort"

//FailurePolicySkip logs a failing frame and keeps going with the next one
const FailurePolicySkip = "skip"
