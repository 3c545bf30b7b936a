// Package deps verifies the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"hound/internal/config"
	"hound/internal/services"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the binaries the configured pipeline needs.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "prober",
			Command:     cfg.Transcoder.ProbeBinary,
			Description: "stream inspection for codec/bitrate triage",
		},
		{
			Name:        "transcoder",
			Command:     cfg.Transcoder.TranscodeBinary,
			Description: "video transcoding",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify checks every required binary and returns an error naming the first
// missing one. Optional requirements never fail verification.
func Verify(cfg *config.Config) error {
	for _, status := range CheckBinaries(Requirements(cfg)) {
		if status.Available || status.Optional {
			continue
		}
		return services.Wrap(services.ErrConfiguration, "startup", "preflight",
			fmt.Sprintf("%s unavailable: %s", status.Name, status.Detail), nil)
	}
	return nil
}
