package video

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"gocv.io/x/gocv"
)

var whiteRGB = color.RGBA{255, 255, 255, 0}

//plotBallOnFrame plots given ball's bounding box and writes its class above it
func plotBallOnFrame(frame *gocv.Mat, ball balls.Ball, plotColor color.RGBA) {
	boundingBoxRect := fixBbox(ball.BoundingBox(), frame.Rows(), frame.Cols())
	if boundingBoxRect.Empty() {
		return
	}

	gocv.Rectangle(frame, boundingBoxRect, plotColor, 2)

	text := ball.Class.String()
	textSize := gocv.GetTextSize(text, gocv.FontHersheyPlain, 1, 1)
	startPointText := image.Pt(boundingBoxRect.Min.X, boundingBoxRect.Min.Y-4)
	if startPointText.Y-textSize.Y < 0 { //no room above the box, write it below
		startPointText.Y = boundingBoxRect.Max.Y + textSize.Y + 4
	}

	textBackgroundRect := image.Rect(startPointText.X, startPointText.Y-textSize.Y-2, startPointText.X+textSize.X+2, startPointText.Y+2)
	gocv.Rectangle(frame, textBackgroundRect, plotColor, -1) //thickness -1 == filled rectangle

	textColor := whiteRGB
	if ball.Class == balls.White {
		textColor = color.RGBA{0, 0, 0, 0}
	}
	gocv.PutText(frame, text, startPointText, gocv.FontHersheyPlain, 1, textColor, 1)
}

//plotDetections plots every classified ball of the set, with its class color
func plotDetections(frame *gocv.Mat, set balls.DetectionSet, colors map[balls.Class]color.RGBA) {
	for _, b := range set.Balls {
		c, ok := colors[b.Class]
		if !ok {
			continue
		}
		plotBallOnFrame(frame, b, c)
	}
}

//fixBbox fixes bounding box values in case they are out of frame's range
func fixBbox(bbox image.Rectangle, frameHeight, frameWidth int) image.Rectangle {
	return bbox.Intersect(image.Rect(0, 0, frameWidth, frameHeight))
}
