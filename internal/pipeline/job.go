package pipeline

import (
	"path/filepath"

	"github.com/google/uuid"

	"hound/internal/classify"
	"hound/internal/config"
	"hound/internal/media"
)

// Job links a queue entry to its local staging artifacts while the
// coordinator is actively advancing the file. It is never persisted; a
// restart rebuilds jobs from the queue and the scanner.
type Job struct {
	ID       string
	File     media.File
	Decision classify.Decision

	// DownloadPath is the local copy of the source file.
	DownloadPath string
	// EncodePath is where the transcoder writes its output.
	EncodePath string
}

func newJob(cfg *config.Config, file media.File, decision classify.Decision) *Job {
	id := uuid.NewString()
	staged := id + "-" + file.Name()
	return &Job{
		ID:           id,
		File:         file,
		Decision:     decision,
		DownloadPath: filepath.Join(cfg.Paths.DownloadDir, staged),
		EncodePath:   filepath.Join(cfg.Paths.EncodeDir, staged),
	}
}

// DestinationPath is the final resting place of the encoded file: the
// destination root, the inferred category, and the source's relative
// directory structure.
func (j *Job) DestinationPath(destRoot string) string {
	return filepath.Join(j.File.DestinationDir(destRoot), j.File.Name())
}
