package transcoder

import (
	"fmt"
	"strconv"

	"hound/internal/config"
)

// defaultCRF is used when rate control is "crf"; kept in range for both
// libx265 and libsvtav1.
const defaultCRF = 23

// BuildArgs constructs the complete transcode argument slice, binary first.
// targetKbps feeds the bitrate-based rate control modes; the output file is
// always the final argument.
func BuildArgs(cfg *config.Transcoder, selection Selection, targetKbps int, inputPath, outputPath string) []string {
	args := make([]string, 0, 32)
	args = append(args, cfg.TranscodeBinary, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")
	args = append(args, "-i", inputPath)

	// First video stream only; attached pictures never survive.
	args = append(args, "-map", "0:v:0")
	for _, idx := range selection.AudioIndexes {
		args = append(args, "-map", fmt.Sprintf("0:%d", idx))
	}
	for _, idx := range selection.SubtitleIndexes {
		args = append(args, "-map", fmt.Sprintf("0:%d", idx))
	}

	args = append(args, "-c:v", cfg.VideoCodec, "-preset", cfg.QualityPreset)
	switch cfg.RateControl {
	case "crf":
		args = append(args, "-crf", strconv.Itoa(defaultCRF))
	default:
		args = append(args, "-b:v", fmt.Sprintf("%dk", targetKbps))
	}

	args = append(args, "-c:a", "copy", "-c:s", "copy")
	args = append(args, "-map_metadata", "0", "-map_chapters", "0")
	args = append(args, outputPath)
	return args
}
