package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchRoots     []string `toml:"watch_roots"`
	DownloadDir    string   `toml:"download_dir"`
	EncodeDir      string   `toml:"encode_dir"`
	DestinationDir string   `toml:"destination_dir"`
	LogDir         string   `toml:"log_dir"`
}

// Scan contains discovery and readiness settings.
type Scan struct {
	Extensions   []string `toml:"extensions"`
	MinSizeMiB   int64    `toml:"min_size_mib"`
	PollInterval int      `toml:"poll_interval"`
	MinFileAge   int      `toml:"min_file_age"`
	SettleDelay  int      `toml:"settle_delay"`
}

// Classify contains the codec/bitrate triage thresholds.
type Classify struct {
	TargetBitrateKbps int      `toml:"target_bitrate_kbps"`
	SkipMultiplier    float64  `toml:"skip_multiplier"`
	CompressedCodecs  []string `toml:"compressed_codecs"`
	LegacyCodec       string   `toml:"legacy_codec"`
}

// Pipeline contains coordinator capacity and retention settings.
type Pipeline struct {
	DownloadBuffer     int `toml:"download_buffer"`
	TranscodeSlots     int `toml:"transcode_slots"`
	EncodingStaleHours int `toml:"encoding_stale_hours"`
	ActiveStaleHours   int `toml:"active_stale_hours"`
	CooldownHours      int `toml:"cooldown_hours"`
}

// Transcoder contains the external tool invocation settings.
type Transcoder struct {
	ProbeBinary       string   `toml:"probe_binary"`
	TranscodeBinary   string   `toml:"transcode_binary"`
	VideoCodec        string   `toml:"video_codec"`
	QualityPreset     string   `toml:"quality_preset"`
	RateControl       string   `toml:"rate_control"`
	NiceLevel         int      `toml:"nice_level"`
	RescueHeuristic   bool     `toml:"rescue_heuristic"`
	RescueMinSizeMiB  int64    `toml:"rescue_min_size_mib"`
	RescueMinSeconds  int      `toml:"rescue_min_seconds"`
	TargetLanguage    string   `toml:"target_language"`
	FilteredFragments []string `toml:"filtered_fragments"`
	SignageKeywords   []string `toml:"signage_keywords"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for hound.
//
// Configuration sections by subsystem:
//   - Paths: watch roots, staging directories, destination, log directory
//   - Scan: candidate discovery filters and readiness thresholds
//   - Classify: codec/bitrate skip thresholds
//   - Pipeline: buffer/slot capacities and staleness windows
//   - Transcoder: external prober/transcoder invocation settings
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Scan       Scan       `toml:"scan"`
	Classify   Classify   `toml:"classify"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Transcoder Transcoder `toml:"transcoder"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hound/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path and the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hound.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// DestinationDir is created on a best-effort basis so the daemon can start
// while the destination share is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.EncodeDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		_ = os.MkdirAll(c.Paths.DestinationDir, 0o755)
	}
	return nil
}

// QueuePath returns the location of the durable queue document.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.LogDir, "queue.json")
}

// ProgressPath returns the location of the progress snapshot document.
func (c *Config) ProgressPath() string {
	return filepath.Join(c.Paths.LogDir, "progress.json")
}

// SkipLogPath returns the location of the append-only skip audit log.
func (c *Config) SkipLogPath() string {
	return filepath.Join(c.Paths.LogDir, "skipped.log")
}

// HistoryPath returns the location of the history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockPath returns the location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "houndd.lock")
}

// PollInterval returns the scan cycle interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scan.PollInterval) * time.Second
}

// MinFileAge returns the minimum age since last write before a file is ready.
func (c *Config) MinFileAge() time.Duration {
	return time.Duration(c.Scan.MinFileAge) * time.Second
}

// SettleDelay returns the wait used to confirm a file's size is stable.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Scan.SettleDelay) * time.Second
}

// MinSizeBytes returns the scanner's minimum candidate size in bytes.
func (c *Config) MinSizeBytes() int64 {
	return c.Scan.MinSizeMiB * 1024 * 1024
}

// EncodingStaleWindow returns the reclaim window for Encoding entries.
func (c *Config) EncodingStaleWindow() time.Duration {
	return time.Duration(c.Pipeline.EncodingStaleHours) * time.Hour
}

// ActiveStaleWindow returns the reclaim window for other active entries.
func (c *Config) ActiveStaleWindow() time.Duration {
	return time.Duration(c.Pipeline.ActiveStaleHours) * time.Hour
}

// CooldownWindow returns the terminal entry retention window.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.Pipeline.CooldownHours) * time.Hour
}

// SkipThresholdKbps returns the bitrate at or below which a legacy-codec file
// is skipped.
func (c *Config) SkipThresholdKbps() int {
	return int(float64(c.Classify.TargetBitrateKbps) * c.Classify.SkipMultiplier)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
