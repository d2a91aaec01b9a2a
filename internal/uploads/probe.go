package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober reads the playback duration of a local media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

const defaultProbeTimeout = 30 * time.Second

// FFProbe shells out to ffprobe through ffmpeg-go.
type FFProbe struct {
	Timeout time.Duration
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p FFProbe) Duration(ctx context.Context, path string) (time.Duration, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	raw, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeDuration([]byte(raw))
}

func parseProbeDuration(raw []byte) (time.Duration, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	secs, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || math.IsNaN(secs) || secs < 0 || secs*float64(time.Second) >= math.MaxInt64 {
		return 0, fmt.Errorf("ffprobe duration %q not usable", out.Format.Duration)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// FormatDuration renders d as m:ss, rounding to the nearest second.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
