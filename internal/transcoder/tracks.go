package transcoder

import (
	"strings"

	"golang.org/x/text/language"

	"hound/internal/config"
	"hound/internal/media/ffprobe"
)

// Selection names the streams to carry into the output, by absolute stream
// index as reported by the prober.
type Selection struct {
	AudioIndexes    []int
	SubtitleIndexes []int
	Filtered        bool
}

// SelectTracks decides which audio and subtitle streams to keep.
//
// The default policy is conservative: the first audio stream plus every
// subtitle stream. Releases whose source path carries a configured filtered
// fragment get the curated policy instead: the first audio stream plus every
// target-language audio stream, and only subtitles in the target language or
// whose title names a signage track.
func SelectTracks(cfg *config.Transcoder, sourcePath string, probe *ffprobe.Result) Selection {
	filtered := matchesFragment(sourcePath, cfg.FilteredFragments)
	selection := Selection{Filtered: filtered}

	target := language.Make(cfg.TargetLanguage)

	selection.AudioIndexes = pickAudio(probe.Audio, target, filtered)

	for _, stream := range probe.Subtitles {
		if !filtered {
			selection.SubtitleIndexes = append(selection.SubtitleIndexes, stream.Index)
			continue
		}
		if languageMatches(target, stream.Language) || matchesFragment(stream.Title, cfg.SignageKeywords) {
			selection.SubtitleIndexes = append(selection.SubtitleIndexes, stream.Index)
		}
	}
	return selection
}

// pickAudio always keeps the first audio stream. Under the filtered policy
// every target-language stream rides along too, so the original track
// survives even when it is not in the target language.
func pickAudio(streams []ffprobe.Stream, target language.Tag, filtered bool) []int {
	if len(streams) == 0 {
		return nil
	}
	indexes := []int{streams[0].Index}
	if !filtered {
		return indexes
	}
	for _, stream := range streams[1:] {
		if languageMatches(target, stream.Language) {
			indexes = append(indexes, stream.Index)
		}
	}
	return indexes
}

func matchesFragment(value string, fragments []string) bool {
	if value == "" {
		return false
	}
	lowered := strings.ToLower(value)
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

// languageMatches compares the base language of a stream tag against the
// target, so "en", "eng", and "en-US" all line up.
func languageMatches(target language.Tag, code string) bool {
	if code == "" {
		return false
	}
	targetBase, targetConf := target.Base()
	if targetConf == language.No {
		return false
	}
	streamBase, streamConf := language.Make(code).Base()
	if streamConf == language.No {
		return false
	}
	return streamBase == targetBase
}
