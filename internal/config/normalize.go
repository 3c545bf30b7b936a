package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeClassify()
	c.normalizeTranscoder()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	roots := make([]string, 0, len(c.Paths.WatchRoots))
	for i, root := range c.Paths.WatchRoots {
		trimmed := strings.TrimSpace(root)
		if trimmed == "" {
			continue
		}
		expanded, expandErr := expandPath(trimmed)
		if expandErr != nil {
			return fmt.Errorf("paths.watch_roots[%d]: %w", i, expandErr)
		}
		roots = append(roots, expanded)
	}
	c.Paths.WatchRoots = roots

	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.EncodeDir, err = expandPath(c.Paths.EncodeDir); err != nil {
		return fmt.Errorf("paths.encode_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
			return fmt.Errorf("paths.destination_dir: %w", err)
		}
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		exts = append(exts, cleaned)
	}
	c.Scan.Extensions = exts
}

func (c *Config) normalizeClassify() {
	codecs := make([]string, 0, len(c.Classify.CompressedCodecs))
	for _, codec := range c.Classify.CompressedCodecs {
		cleaned := strings.ToLower(strings.TrimSpace(codec))
		if cleaned == "" {
			continue
		}
		codecs = append(codecs, cleaned)
	}
	c.Classify.CompressedCodecs = codecs
	c.Classify.LegacyCodec = strings.ToLower(strings.TrimSpace(c.Classify.LegacyCodec))
}

func (c *Config) normalizeTranscoder() {
	c.Transcoder.ProbeBinary = strings.TrimSpace(c.Transcoder.ProbeBinary)
	c.Transcoder.TranscodeBinary = strings.TrimSpace(c.Transcoder.TranscodeBinary)
	c.Transcoder.VideoCodec = strings.TrimSpace(c.Transcoder.VideoCodec)
	c.Transcoder.QualityPreset = strings.ToLower(strings.TrimSpace(c.Transcoder.QualityPreset))
	c.Transcoder.RateControl = strings.ToLower(strings.TrimSpace(c.Transcoder.RateControl))
	c.Transcoder.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Transcoder.TargetLanguage))

	fragments := make([]string, 0, len(c.Transcoder.FilteredFragments))
	for _, fragment := range c.Transcoder.FilteredFragments {
		cleaned := strings.ToLower(strings.TrimSpace(fragment))
		if cleaned == "" {
			continue
		}
		fragments = append(fragments, cleaned)
	}
	c.Transcoder.FilteredFragments = fragments

	keywords := make([]string, 0, len(c.Transcoder.SignageKeywords))
	for _, keyword := range c.Transcoder.SignageKeywords {
		cleaned := strings.ToLower(strings.TrimSpace(keyword))
		if cleaned == "" {
			continue
		}
		keywords = append(keywords, cleaned)
	}
	c.Transcoder.SignageKeywords = keywords
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
