package video

import (
	"image"
	"image/color"
	"path/filepath"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"github.com/chenBenjamin97/pool-analyzer/pkg/record"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MinimapFileName returns the minimap snapshot file name of the given artifact tag.
func MinimapFileName(tag string) string {
	return tag + "_minimap.png"
}

// FrameFileName returns the annotated frame snapshot file name of the given artifact tag.
func FrameFileName(tag string) string {
	return tag + "_frame_bb.png"
}

// MaskFileName returns the class mask file name of the given artifact tag.
func MaskFileName(tag string) string {
	return tag + "_mask.png"
}

//writeArtifacts saves the snapshots of a tagged frame into dir and returns their paths
func writeArtifacts(dir, tag string, annotated, mm gocv.Mat, set balls.DetectionSet, colors map[balls.Class]color.RGBA) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}

	mask := balls.ClassMask(image.Pt(annotated.Cols(), annotated.Rows()), set.Balls, colors)
	defer mask.Close()

	images := []struct {
		name string
		mat  gocv.Mat
	}{
		{MinimapFileName(tag), mm},
		{FrameFileName(tag), annotated},
		{MaskFileName(tag), mask},
	}

	paths := make([]string, 0, len(images)+1)
	for _, img := range images {
		path := filepath.Join(dir, img.name)
		if ok := gocv.IMWrite(path, img.mat); !ok {
			return paths, errors.Errorf("writeArtifacts: could not write '%s'", path)
		}
		paths = append(paths, path)
	}

	path, err := record.WriteFile(dir, tag, record.FromBalls(set.Balls))
	if err != nil {
		return paths, err
	}

	return append(paths, path), nil
}
