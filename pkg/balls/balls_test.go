package balls

import (
	"image"
	"image/color"
	"testing"

	"github.com/chenBenjamin97/pool-analyzer/pkg/geometry"
	"github.com/chenBenjamin97/pool-analyzer/pkg/table"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	felt      = color.RGBA{30, 120, 40, 0}
	cueColor  = color.RGBA{250, 250, 250, 0}
	tableRect = [4]geometry.Point{
		geometry.Pt(40, 40), geometry.Pt(600, 40), geometry.Pt(600, 440), geometry.Pt(40, 440),
	}
)

// a bright felt (norm above BrightClusterNorm) with a blue cue, a dark red solid and the eight
var (
	brightFelt  = color.RGBA{170, 170, 30, 0}
	rackedBalls = map[Class]struct {
		center image.Point
		color  color.RGBA
	}{
		White: {image.Pt(200, 150), color.RGBA{0, 0, 255, 0}},
		Black: {image.Pt(400, 300), color.RGBA{10, 10, 10, 0}},
		Solid: {image.Pt(480, 200), color.RGBA{90, 10, 10, 0}},
	}
)

func ballsWithNorms(norms ...float64) []Ball {
	balls := make([]Ball, 0, len(norms))
	for i, n := range norms {
		balls = append(balls, Ball{Center: geometry.Pt(float64(i*20), 0), Radius: 9, ColorNorm: n})
	}
	return balls
}

func classes(balls []Ball) []Class {
	out := make([]Class, 0, len(balls))
	for _, b := range balls {
		out = append(out, b.Class)
	}
	return out
}

func TestClassify_Totality(t *testing.T) {
	classified := Classify(ballsWithNorms(400, 50, 120, 260, 180, 300))
	require.Len(t, classified, 6)

	for _, b := range classified {
		assert.NotEqual(t, Unknown, b.Class)
	}
	assert.Equal(t, []Class{White, Black, Solid, Striped, Solid, Striped}, classes(classified))
}

func TestClassify_SolidScenario(t *testing.T) {
	// white cue, black eight and one red solid
	classified := Classify(ballsWithNorms(380, 40, 150))
	require.Len(t, classified, 3)
	assert.Equal(t, []Class{White, Black, Solid}, classes(classified))

	set := DetectionSet{Balls: classified}
	assert.Equal(t, 1, set.Count(Solid))
	assert.Equal(t, 0, set.Count(Striped))
}

func TestClassify_TiesShareClass(t *testing.T) {
	classified := Classify(ballsWithNorms(300, 300, 80, 80, 150))
	assert.Equal(t, []Class{White, White, Black, Black, Solid}, classes(classified))
}

func TestClassify_SingleBallIsWhite(t *testing.T) {
	classified := Classify(ballsWithNorms(90))
	assert.Equal(t, []Class{White}, classes(classified))
}

func TestClassify_DropsBoundaryNorm(t *testing.T) {
	classified := Classify(ballsWithNorms(400, 50, utils.StripedNorm))
	assert.Equal(t, []Class{White, Black}, classes(classified))
}

func TestClassify_Empty(t *testing.T) {
	assert.Empty(t, Classify(nil))
}

func TestAdjustRadius(t *testing.T) {
	assert.InDelta(t, 9.1, AdjustRadius(3), 1e-9)
	assert.InDelta(t, 9.1, AdjustRadius(6.49), 1e-9)
	assert.InDelta(t, 8.5, AdjustRadius(6.5), 1e-9)
	assert.InDelta(t, 12, AdjustRadius(10), 1e-9)
}

func TestClassLabels(t *testing.T) {
	for c, label := range map[Class]int{White: 1, Black: 2, Solid: 3, Striped: 4, Unknown: 0} {
		assert.Equal(t, label, c.Label(), c.String())
	}

	c, err := ClassFromLabel(4)
	require.NoError(t, err)
	assert.Equal(t, Striped, c)

	_, err = ClassFromLabel(0)
	assert.Error(t, err)
	_, err = ClassFromLabel(5)
	assert.Error(t, err)
}

func TestBallBoundingBox(t *testing.T) {
	b := Ball{Center: geometry.Pt(100, 50), Radius: 9.1}
	assert.Equal(t, image.Rect(91, 41, 109, 59), b.BoundingBox())
}

func syntheticTable(t *testing.T, ballCenters ...image.Point) gocv.Mat {
	t.Helper()

	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(40, 40, 600, 440), felt, -1)
	for _, c := range ballCenters {
		gocv.Circle(&frame, c, 9, cueColor, -1)
	}
	return frame
}

// brightTable draws the felt on a black frame, its four sides are the table boundary lines.
func brightTable(t *testing.T) gocv.Mat {
	t.Helper()

	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(40, 40, 600, 440), brightFelt, -1)
	return frame
}

func rackedTable(t *testing.T) gocv.Mat {
	t.Helper()

	frame := brightTable(t)
	for _, b := range rackedBalls {
		gocv.Circle(&frame, b.center, 9, b.color, -1)
	}
	return frame
}

func TestTableMask_BlacksOutOutside(t *testing.T) {
	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(200, 200, 200, 0))

	masked := TableMask(frame, tableRect)
	defer masked.Close()

	assert.Equal(t, uint8(0), masked.GetUCharAt(10, 10*3))
	assert.Equal(t, uint8(200), masked.GetUCharAt(240, 320*3))
	assert.Equal(t, image.Rect(40, 40, 600, 440), BoundingRect(frame, tableRect))
}

func TestLocate_BlankFrameHasNoCircles(t *testing.T) {
	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	_, err := Locate(frame)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNoCircles, errors.Cause(err))
	assert.True(t, utils.IsFrameFailure(err))
}

func TestRefine_FindsDrawnBall(t *testing.T) {
	frame := syntheticTable(t, image.Pt(300, 200))
	defer frame.Close()

	refined, err := Refine(frame, []Circle{{Center: geometry.Pt(296, 203), Radius: 8}})
	require.NoError(t, err)
	require.NotEmpty(t, refined)

	assert.LessOrEqual(t, refined[0].Center.Dist(geometry.Pt(300, 200)), 3.0)
	assert.GreaterOrEqual(t, refined[0].Radius, utils.ClampedRadius+utils.RadiusInflation-1e-9)
	assert.Equal(t, Unknown, refined[0].Class)
}

func TestRefine_EmptyWindowFails(t *testing.T) {
	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	_, err := Refine(frame, []Circle{{Center: geometry.Pt(300, 200), Radius: 8}})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrRefinement)
}

func TestMeasureColors(t *testing.T) {
	frame := syntheticTable(t, image.Pt(300, 200))
	defer frame.Close()

	measured := MeasureColors(frame, []Ball{
		{Center: geometry.Pt(300, 200), Radius: 6},
		{Center: geometry.Pt(100, 100), Radius: 6},
	})
	require.Len(t, measured, 2)
	assert.InDelta(t, 433.0, measured[0].ColorNorm, 1.0) // sqrt(3 * 250^2)
	assert.Less(t, measured[1].ColorNorm, 150.0)
}

func TestDetector_FindsOneSolid(t *testing.T) {
	frame := rackedTable(t)
	defer frame.Close()

	geom, err := table.Detect(frame)
	require.NoError(t, err)

	set, err := NewDetector(geom).Detect(frame, 0)
	require.NoError(t, err)
	require.Len(t, set.Balls, 3)

	assert.Equal(t, 1, set.Count(Solid))
	assert.Equal(t, 1, set.Count(White))
	assert.Equal(t, 1, set.Count(Black))
	assert.Equal(t, 0, set.Count(Striped))

	for _, b := range set.Balls {
		want := rackedBalls[b.Class].center
		assert.LessOrEqual(t, b.Center.Dist(geometry.Pt(float64(want.X), float64(want.Y))), 3.0, "%s at %v", b.Class, b.Center)
		assert.GreaterOrEqual(t, b.Radius, utils.ClampedRadius+utils.RadiusInflation-1e-9)
		if b.Class == Solid {
			assert.Less(t, b.ColorNorm, utils.StripedNorm)
		}
	}
}

func TestDetector_Idempotent(t *testing.T) {
	frame := rackedTable(t)
	defer frame.Close()

	geom, err := table.Detect(frame)
	require.NoError(t, err)
	d := NewDetector(geom)

	first, err := d.Detect(frame, 7)
	require.NoError(t, err)
	second, err := d.Detect(frame, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, first.Index)
	assert.NotEmpty(t, first.Balls)
	assert.Equal(t, first, second)
}

func TestDetector_EmptyTableFails(t *testing.T) {
	frame := brightTable(t)
	defer frame.Close()

	geom, err := table.NewGeometry(tableRect)
	require.NoError(t, err)

	_, err = NewDetector(geom).Detect(frame, 0)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNoCircles, errors.Cause(err))
	assert.True(t, utils.IsFrameFailure(err))
}
