package video

import (
	"fmt"
	"log/slog"

	"github.com/chenBenjamin97/pool-analyzer/pkg/minimap"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/spf13/viper"
)

// FailurePolicy decides what happens to the run when a single frame fails.
type FailurePolicy string

const (
	//Abort ends the run with the frame's error
	Abort FailurePolicy = utils.FailurePolicyAbort
	//Skip logs the failure and writes the frame without annotations
	Skip FailurePolicy = utils.FailurePolicySkip
)

// ParseFailurePolicy parses a policy name, "" means Abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", Abort:
		return Abort, nil
	case Skip:
		return Skip, nil
	}
	return "", fmt.Errorf("ParseFailurePolicy: unknown policy '%s'", s)
}

// Config holds everything Analyze needs besides its input and output paths.
type Config struct {
	//Codec is the fourcc the output video is written with
	Codec string
	//ArtifactsDir receives the snapshots of the first and the penultimate frame, nothing is written when empty
	ArtifactsDir string
	//Preview shows every written frame in a window, 'q' or ESC stops the run
	Preview bool
	Policy  FailurePolicy
	Palette minimap.Palette
	//ThumbnailScale is the size of the minimap pasted on every frame, relative to the canonical table size
	ThumbnailScale float64
	Logger         *slog.Logger
}

// DefaultConfig returns an XVID, abort-on-failure configuration without artifacts or preview.
func DefaultConfig() Config {
	return Config{
		Codec:          "XVID",
		Policy:         Abort,
		Palette:        minimap.DefaultPalette(),
		ThumbnailScale: 0.25,
		Logger:         slog.Default(),
	}
}

// ConfigFromViper reads the "video", "pipeline" and "minimap" sections of the configuration.
// Missing keys keep their DefaultConfig value.
func ConfigFromViper(v *viper.Viper, logger *slog.Logger) (Config, error) {
	cfg := DefaultConfig()
	if logger != nil {
		cfg.Logger = logger
	}

	if codec := v.GetString("video.codec"); codec != "" {
		if len(codec) != 4 {
			return cfg, fmt.Errorf("ConfigFromViper: video.codec must be a fourcc, got '%s'", codec)
		}
		cfg.Codec = codec
	}
	cfg.Preview = v.GetBool("video.preview")

	policy, err := ParseFailurePolicy(v.GetString("pipeline.failure_policy"))
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	if palette := v.GetStringMapString("minimap.palette"); len(palette) > 0 {
		if cfg.Palette, err = minimap.ParsePalette(palette); err != nil {
			return cfg, err
		}
	}

	if v.IsSet("minimap.thumbnail_scale") {
		scale := v.GetFloat64("minimap.thumbnail_scale")
		if scale < 0 || scale > 1 {
			return cfg, fmt.Errorf("ConfigFromViper: minimap.thumbnail_scale must be in [0,1], got %v", scale)
		}
		cfg.ThumbnailScale = scale
	}

	return cfg, nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Summary describes a finished run.
type Summary struct {
	Frames    int
	Failed    int
	Artifacts []string
	Cancelled bool
}
