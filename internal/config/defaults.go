package config

const (
	defaultDownloadDir       = "~/.local/share/hound/staging/download"
	defaultEncodeDir         = "~/.local/share/hound/staging/encode"
	defaultLogDir            = "~/.local/share/hound/logs"
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
	defaultMinSizeMiB        = 300
	defaultPollInterval      = 60
	defaultMinFileAge        = 300
	defaultSettleDelay       = 5
	defaultTargetBitrateKbps = 6000
	defaultSkipMultiplier    = 1.3
	defaultLegacyCodec       = "h264"
	defaultDownloadBuffer    = 2
	defaultTranscodeSlots    = 1
	defaultEncodingStale     = 2
	defaultActiveStale       = 4
	defaultCooldown          = 24
	defaultProbeBinary       = "ffprobe"
	defaultTranscodeBinary   = "ffmpeg"
	defaultVideoCodec        = "libx265"
	defaultQualityPreset     = "medium"
	defaultRateControl       = "vbr"
	defaultNiceLevel         = 10
	defaultRescueMinSizeMiB  = 10
	defaultRescueMinSeconds  = 30
	defaultTargetLanguage    = "eng"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			EncodeDir:   defaultEncodeDir,
			LogDir:      defaultLogDir,
		},
		Scan: Scan{
			Extensions:   []string{".mkv", ".mp4", ".avi", ".m2ts"},
			MinSizeMiB:   defaultMinSizeMiB,
			PollInterval: defaultPollInterval,
			MinFileAge:   defaultMinFileAge,
			SettleDelay:  defaultSettleDelay,
		},
		Classify: Classify{
			TargetBitrateKbps: defaultTargetBitrateKbps,
			SkipMultiplier:    defaultSkipMultiplier,
			CompressedCodecs:  []string{"hevc", "av1", "vp9"},
			LegacyCodec:       defaultLegacyCodec,
		},
		Pipeline: Pipeline{
			DownloadBuffer:     defaultDownloadBuffer,
			TranscodeSlots:     defaultTranscodeSlots,
			EncodingStaleHours: defaultEncodingStale,
			ActiveStaleHours:   defaultActiveStale,
			CooldownHours:      defaultCooldown,
		},
		Transcoder: Transcoder{
			ProbeBinary:      defaultProbeBinary,
			TranscodeBinary:  defaultTranscodeBinary,
			VideoCodec:       defaultVideoCodec,
			QualityPreset:    defaultQualityPreset,
			RateControl:      defaultRateControl,
			NiceLevel:        defaultNiceLevel,
			RescueHeuristic:  true,
			RescueMinSizeMiB: defaultRescueMinSizeMiB,
			RescueMinSeconds: defaultRescueMinSeconds,
			TargetLanguage:   defaultTargetLanguage,
			SignageKeywords:  []string{"signs", "songs"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
