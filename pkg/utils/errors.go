package utils

import "github.com/pkg/errors"

//Failure kinds of the analysis pipeline. Stages wrap them with context, use errors.Cause to classify.
var (
	ErrInput      = errors.New("video cannot be opened")
	ErrGeometry   = errors.New("table corners not found")
	ErrNoCircles  = errors.New("no circle candidates")
	ErrRefinement = errors.New("no circle in refinement window")
	ErrMinimap    = errors.New("minimap could not be rendered")
)

//IsFrameFailure reports whether err is a per frame failure (as opposed to a failure of the whole run)
func IsFrameFailure(err error) bool {
	switch errors.Cause(err) {
	case ErrNoCircles, ErrRefinement, ErrMinimap:
		return true
	}
	return false
}
