package compress

import (
	"strconv"

	"vidcompress/internal/plan"
	"vidcompress/internal/probe"
)

const (
	inputName  = "input.mp4"
	outputName = "output.mp4"

	audioBitrate = "128k"
)

// encodeArgs builds the ffmpeg arguments for one job. The rescale filter is
// only added when the source exceeds the plan's bounds.
func encodeArgs(p plan.Plan, md probe.Metadata, threads int) []string {
	args := []string{
		"-i", inputName,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(p.CRF),
		"-preset", string(p.Preset),
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-movflags", "+faststart",
	}

	if p.NeedsScale(md.Width, md.Height) {
		args = append(args, "-vf", p.ScaleFilter())
	}

	args = append(args,
		"-maxrate", p.TargetBitrate,
		"-bufsize", p.BufferSize(),
	)

	if threads > 0 {
		args = append(args, "-threads", strconv.Itoa(threads))
	}

	return append(args, outputName)
}
