// Package ffprobe invokes the external prober once per file and converts its
// JSON output into the stream snapshot the classifier and track selection
// consume. The prober's CLI contract is treated as an opaque, versioned
// boundary; only the fields used downstream are parsed.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the parsed outcome of a single probe call.
type Result struct {
	Format     FormatInfo
	VideoCodec string
	// VideoBitRate is the primary video stream's bitrate in bits per
	// second, or 0 when the stream does not report one.
	VideoBitRate int64
	Audio        []Stream
	Subtitles    []Stream
}

// FormatInfo holds container-level metadata.
type FormatInfo struct {
	Duration float64
	Size     int64
	BitRate  int64
}

// Stream holds the per-track properties used for selection.
type Stream struct {
	Index    int
	Codec    string
	Language string
	Title    string
	Default  bool
}

// BitrateKbps returns the effective bitrate in kbps: the video stream value
// when present, otherwise the container-level fallback, otherwise 0.
func (r *Result) BitrateKbps() int {
	if r.VideoBitRate > 0 {
		return int(r.VideoBitRate / 1000)
	}
	if r.Format.BitRate > 0 {
		return int(r.Format.BitRate / 1000)
	}
	return 0
}

// Inspect runs a single probe call against path and returns the parsed result.
func Inspect(ctx context.Context, binary, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", path, err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, fmt.Errorf("probe %q: empty output", path)
	}

	return Parse(out)
}

// Parse converts raw prober JSON output into a Result. Exported for testing
// without a real prober binary.
func Parse(data []byte) (*Result, error) {
	var raw proberOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse probe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- prober JSON wire types ---

type proberOutput struct {
	Format  proberFormat   `json:"format"`
	Streams []proberStream `json:"streams"`
}

type proberFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type proberStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	BitRate     string            `json:"bit_rate"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

func buildResult(raw *proberOutput) *Result {
	result := &Result{
		Format: FormatInfo{
			Duration: parseFloat(raw.Format.Duration),
			Size:     parseInt64(raw.Format.Size),
			BitRate:  parseInt64(raw.Format.BitRate),
		},
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 {
				continue
			}
			if result.VideoCodec == "" {
				result.VideoCodec = strings.ToLower(s.CodecName)
				result.VideoBitRate = parseInt64(s.BitRate)
			}
		case "audio":
			result.Audio = append(result.Audio, convertStream(s))
		case "subtitle":
			result.Subtitles = append(result.Subtitles, convertStream(s))
		}
	}
	return result
}

func convertStream(s *proberStream) Stream {
	return Stream{
		Index:    s.Index,
		Codec:    s.CodecName,
		Language: strings.ToLower(s.Tags["language"]),
		Title:    s.Tags["title"],
		Default:  s.Disposition["default"] == 1,
	}
}

// Numeric fields arrive as strings in the prober JSON.

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
