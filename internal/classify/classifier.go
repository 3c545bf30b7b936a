package classify

import (
	"context"
	"log/slog"
	"slices"

	"hound/internal/config"
	"hound/internal/logging"
	"hound/internal/media"
	"hound/internal/media/ffprobe"
	"hound/internal/services"
)

// Skip reasons recorded in the audit log.
const (
	ReasonAlreadyCompressed = "already compressed"
	ReasonLowBitrate        = "low bitrate"
)

// Decision is the outcome of classifying one candidate file.
type Decision struct {
	Eligible    bool
	Reason      string
	Codec       string
	BitrateKbps int
	Probe       *ffprobe.Result
}

// Classifier invokes the external prober and applies the skip rules.
type Classifier struct {
	cfg    *config.Config
	audit  *AuditLog
	logger *slog.Logger

	probe func(ctx context.Context, binary, path string) (*ffprobe.Result, error)
}

// New constructs a classifier. audit may be nil to disable skip logging.
func New(cfg *config.Config, audit *AuditLog, logger *slog.Logger) *Classifier {
	return &Classifier{
		cfg:    cfg,
		audit:  audit,
		logger: logging.NewComponentLogger(logger, "classifier"),
		probe:  ffprobe.Inspect,
	}
}

// Classify probes the file and returns the triage decision. A probe failure
// is returned as a services.ErrExternalTool error; the caller treats it as a
// soft skip for the current cycle.
func (c *Classifier) Classify(ctx context.Context, file media.File) (Decision, error) {
	result, err := c.probe(ctx, c.cfg.Transcoder.ProbeBinary, file.Path)
	if err != nil {
		return Decision{}, services.Wrap(services.ErrExternalTool, "classify", "probe", file.Path, err)
	}

	decision := Decision{
		Codec:       result.VideoCodec,
		BitrateKbps: result.BitrateKbps(),
		Probe:       result,
	}

	switch {
	case slices.Contains(c.cfg.Classify.CompressedCodecs, result.VideoCodec):
		decision.Reason = ReasonAlreadyCompressed
	case result.VideoCodec == c.cfg.Classify.LegacyCodec &&
		decision.BitrateKbps > 0 &&
		decision.BitrateKbps <= c.cfg.SkipThresholdKbps():
		// An indeterminable bitrate (0) never triggers the low-bitrate
		// skip; the file stays eligible.
		decision.Reason = ReasonLowBitrate
	default:
		decision.Eligible = true
	}

	if !decision.Eligible {
		c.logSkip(file, decision)
	}
	return decision, nil
}

func (c *Classifier) logSkip(file media.File, decision Decision) {
	c.logger.Info("skipping file",
		logging.String("path", file.Path),
		logging.String("codec", decision.Codec),
		logging.Int("bitrate_kbps", decision.BitrateKbps),
		logging.String("reason", decision.Reason),
	)
	if c.audit == nil {
		return
	}
	if err := c.audit.Append(SkipRecord{
		Path:   file.Path,
		Codec:  decision.Codec,
		Size:   file.Size,
		Reason: decision.Reason,
	}); err != nil {
		c.logger.Warn("failed to append skip audit record", logging.Error(err))
	}
}
