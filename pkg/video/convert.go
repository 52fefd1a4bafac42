package video

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

//Convert re-encodes src into dst with ffmpeg, the container is chosen by dst's extension.
//example: ffmpeg -y -i game.avi game.mp4
func Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-loglevel", "error", "-i", src, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "Convert: ffmpeg '%s' -> '%s': %s", src, dst, string(out))
	}
	return nil
}
