package ffprobe

import "testing"

const sampleJSON = `{
  "format": {"duration": "5400.5", "size": "629145600", "bit_rate": "9500000"},
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "bit_rate": "12000000"},
    {"index": 1, "codec_name": "mjpeg", "codec_type": "video", "disposition": {"attached_pic": 1}},
    {"index": 2, "codec_name": "aac", "codec_type": "audio", "disposition": {"default": 1}, "tags": {"language": "ENG"}},
    {"index": 3, "codec_name": "aac", "codec_type": "audio", "tags": {"language": "jpn", "title": "Commentary"}},
    {"index": 4, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng", "title": "Signs & Songs"}}
  ]
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoCodec != "h264" {
		t.Fatalf("VideoCodec = %q", result.VideoCodec)
	}
	if result.VideoBitRate != 12000000 {
		t.Fatalf("VideoBitRate = %d", result.VideoBitRate)
	}
	if len(result.Audio) != 2 {
		t.Fatalf("expected 2 audio streams, got %d", len(result.Audio))
	}
	if result.Audio[0].Language != "eng" || !result.Audio[0].Default {
		t.Fatalf("unexpected first audio stream: %+v", result.Audio[0])
	}
	if len(result.Subtitles) != 1 || result.Subtitles[0].Title != "Signs & Songs" {
		t.Fatalf("unexpected subtitles: %+v", result.Subtitles)
	}
}

func TestParseSkipsAttachedPictures(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// The attached_pic stream must not win the primary video slot.
	if result.VideoCodec == "mjpeg" {
		t.Fatal("attached picture selected as primary video")
	}
}

func TestBitrateKbpsFallsBackToContainer(t *testing.T) {
	result, err := Parse([]byte(`{
	  "format": {"bit_rate": "9500000"},
	  "streams": [{"index": 0, "codec_name": "mpeg2video", "codec_type": "video"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.BitrateKbps(); got != 9500 {
		t.Fatalf("BitrateKbps = %d, want 9500", got)
	}
}

func TestBitrateKbpsPrefersStream(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.BitrateKbps(); got != 12000 {
		t.Fatalf("BitrateKbps = %d, want 12000", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
