package video

import (
	"context"
	"image/color"
	"log/slog"

	"github.com/chenBenjamin97/pool-analyzer/pkg/balls"
	"github.com/chenBenjamin97/pool-analyzer/pkg/minimap"
	"github.com/chenBenjamin97/pool-analyzer/pkg/table"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const previewWindowName = "pool analyzer"

//keys that stop the run from the preview window
const (
	keyQuit   = 'q'
	keyEscape = 27
)

// Analyze reads the video at inputPath, finds the table on its first frame and writes every frame,
// annotated with the detected balls and a minimap thumbnail, to outputPath.
//
// Cancelling ctx (or pressing 'q'/ESC in the preview window) stops the run after the current frame
// and returns a summary without error.
func Analyze(ctx context.Context, cfg Config, inputPath, outputPath string) (Summary, error) {
	log := cfg.logger().With("input", inputPath)
	summary := Summary{Artifacts: make([]string, 0)}

	capture, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return summary, errors.Wrapf(utils.ErrInput, "Analyze: %v", err)
	}
	defer capture.Close()

	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if ok := capture.Read(&frame); !ok || frame.Empty() {
		return summary, errors.Wrapf(utils.ErrInput, "Analyze: '%s' has no readable frame", inputPath)
	}

	geom, err := table.Detect(frame)
	if err != nil {
		log.Error("Analyze: table not found", "err", err)
		return summary, err
	}
	log.Info("Analyze: table found", "corners", geom.Corners, "frames", total, "fps", fps)

	videoWriter, err := gocv.VideoWriterFile(outputPath, cfg.Codec, fps, frame.Cols(), frame.Rows(), true)
	if err != nil {
		return summary, errors.Wrapf(err, "Analyze: opening writer '%s'", outputPath)
	}
	defer videoWriter.Close()
	if !videoWriter.IsOpened() {
		return summary, errors.Errorf("Analyze: could not open writer '%s' with codec %s", outputPath, cfg.Codec)
	}

	projector, err := minimap.NewProjector(geom)
	if err != nil {
		return summary, err
	}
	defer projector.Close()

	p := &pipeline{
		cfg:       cfg,
		log:       log,
		detector:  balls.NewDetector(geom),
		projector: projector,
		state:     minimap.NewState(projector, cfg.Palette),
		colors:    cfg.Palette.ClassColors(),
		total:     total,
	}

	var window *gocv.Window
	if cfg.Preview {
		window = gocv.NewWindow(previewWindowName)
		defer window.Close()
	}

	for index := 0; ; index++ {
		if index > 0 {
			if ok := capture.Read(&frame); !ok || frame.Empty() { //finished to read all video's frames
				break
			}
		}

		select {
		case <-ctx.Done():
			log.Info("Analyze: cancelled", "frame", index)
			summary.Cancelled = true
			return p.finish(summary), nil
		default:
		}

		if err := p.process(&frame, index); err != nil {
			if cfg.Policy != Skip || !utils.IsFrameFailure(err) {
				log.Error("Analyze: frame failed", "frame", index, "err", err)
				return p.finish(summary), err
			}
			log.Warn("Analyze: frame skipped", "frame", index, "err", err)
			p.failed++
		}

		if err := videoWriter.Write(frame); err != nil {
			return p.finish(summary), errors.Wrapf(err, "Analyze: writing frame %d", index)
		}
		p.frames++

		if window != nil {
			window.IMShow(frame)
			if key := window.WaitKey(1); key == keyQuit || key == keyEscape {
				log.Info("Analyze: stopped from preview", "frame", index)
				summary.Cancelled = true
				return p.finish(summary), nil
			}
		}
	}

	summary = p.finish(summary)
	log.Info("Analyze: done", "frames", summary.Frames, "failed", summary.Failed, "output", outputPath)
	return summary, nil
}

// pipeline holds the per run state of Analyze.
type pipeline struct {
	cfg       Config
	log       *slog.Logger
	detector  *balls.Detector
	projector *minimap.Projector
	state     *minimap.State
	colors    map[balls.Class]color.RGBA
	total     int

	frames    int
	failed    int
	artifacts []string
}

func (p *pipeline) finish(s Summary) Summary {
	s.Frames = p.frames
	s.Failed = p.failed
	s.Artifacts = append(s.Artifacts, p.artifacts...)
	return s
}

// process detects, renders and annotates one frame in place. On error the frame is left untouched.
func (p *pipeline) process(frame *gocv.Mat, index int) error {
	set, err := p.detector.Detect(*frame, index)
	if err != nil {
		return err
	}

	mm, err := p.state.Render(*frame, p.projector.Project(set.Balls))
	if err != nil {
		return errors.Wrapf(err, "frame %d", index)
	}
	defer mm.Close()

	plotDetections(frame, set, p.colors)

	if tag := utils.ArtifactTag(index, p.total); tag != "" && p.cfg.ArtifactsDir != "" {
		paths, err := writeArtifacts(p.cfg.ArtifactsDir, tag, *frame, mm, set, p.colors)
		if err != nil {
			return err
		}
		p.log.Info("Analyze: artifacts written", "frame", index, "tag", tag, "balls", len(set.Balls))
		p.artifacts = append(p.artifacts, paths...)
	}

	minimap.Overlay(frame, mm, p.cfg.ThumbnailScale)
	return nil
}
