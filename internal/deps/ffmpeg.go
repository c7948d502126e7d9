package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"subburn/internal/config"
)

// filterProbeTimeout bounds the `ffmpeg -filters` probe.
const filterProbeTimeout = 10 * time.Second

// Requirements lists the binaries a configured bot needs at runtime.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Burns subtitles into video"},
		{Name: "ffprobe", Command: cfg.FFmpeg.ProbeBinary, Description: "Reads rendered video duration for inline delivery", Optional: true},
		{Name: "fc-list", Command: cfg.FFmpeg.FCListBinary, Description: "Checks whether the burn font is installed", Optional: true},
		{Name: "fc-cache", Command: cfg.FFmpeg.FCCacheBinary, Description: "Refreshes the font cache after installing the burn font", Optional: true},
	}
}

// CheckSubtitlesFilter reports whether the ffmpeg binary was built with the
// libass-backed "subtitles" video filter.
func CheckSubtitlesFilter(ctx context.Context, binary string) Status {
	result := Status{
		Name:        "FFmpeg subtitles filter",
		Command:     strings.TrimSpace(binary),
		Description: "Requires ffmpeg built with libass",
	}
	if result = lookup(result); !result.Available {
		return result
	}
	result.Available = false

	probeCtx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, result.Command, "-hide_banner", "-filters") //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}
	if hasFilter(stdout.Bytes(), "subtitles") {
		result.Available = true
		return result
	}
	result.Detail = "subtitles filter missing (ffmpeg built without libass)"
	return result
}

// hasFilter scans `ffmpeg -filters` output, whose rows look like
// " ... subtitles         V->V       Render text subtitles ...".
func hasFilter(output []byte, name string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
