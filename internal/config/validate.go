package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateClassify(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTranscoder(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if len(c.Paths.WatchRoots) == 0 {
		return errors.New("paths.watch_roots must list at least one directory")
	}
	if c.Paths.DestinationDir == "" {
		return errors.New("paths.destination_dir must be set")
	}
	if c.Paths.DownloadDir == "" || c.Paths.EncodeDir == "" {
		return errors.New("paths.download_dir and paths.encode_dir must be set")
	}
	if c.Paths.DownloadDir == c.Paths.EncodeDir {
		return errors.New("paths.download_dir and paths.encode_dir must differ")
	}
	return nil
}

func (c *Config) validateScan() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must list at least one extension")
	}
	if c.Scan.MinSizeMiB < 0 {
		return errors.New("scan.min_size_mib must not be negative")
	}
	if c.Scan.PollInterval <= 0 {
		return errors.New("scan.poll_interval must be positive")
	}
	if c.Scan.MinFileAge < 0 {
		return errors.New("scan.min_file_age must not be negative")
	}
	if c.Scan.SettleDelay < 0 {
		return errors.New("scan.settle_delay must not be negative")
	}
	return nil
}

func (c *Config) validateClassify() error {
	if c.Classify.TargetBitrateKbps <= 0 {
		return errors.New("classify.target_bitrate_kbps must be positive")
	}
	if c.Classify.SkipMultiplier < 1 {
		return errors.New("classify.skip_multiplier must be at least 1")
	}
	if c.Classify.LegacyCodec == "" {
		return errors.New("classify.legacy_codec must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.DownloadBuffer < 1 {
		return errors.New("pipeline.download_buffer must be at least 1")
	}
	if c.Pipeline.TranscodeSlots < 1 {
		return errors.New("pipeline.transcode_slots must be at least 1")
	}
	if c.Pipeline.EncodingStaleHours <= 0 || c.Pipeline.ActiveStaleHours <= 0 {
		return errors.New("pipeline staleness windows must be positive")
	}
	if c.Pipeline.CooldownHours <= 0 {
		return errors.New("pipeline.cooldown_hours must be positive")
	}
	return nil
}

func (c *Config) validateTranscoder() error {
	if c.Transcoder.ProbeBinary == "" {
		return errors.New("transcoder.probe_binary must be set")
	}
	if c.Transcoder.TranscodeBinary == "" {
		return errors.New("transcoder.transcode_binary must be set")
	}
	if c.Transcoder.RescueHeuristic {
		if c.Transcoder.RescueMinSizeMiB <= 0 {
			return errors.New("transcoder.rescue_min_size_mib must be positive when the rescue heuristic is enabled")
		}
		if c.Transcoder.RescueMinSeconds <= 0 {
			return errors.New("transcoder.rescue_min_seconds must be positive when the rescue heuristic is enabled")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
