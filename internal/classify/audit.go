package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SkipRecord is one audit log entry for a skipped file.
type SkipRecord struct {
	Path   string
	Codec  string
	Size   int64
	Reason string
	At     time.Time
}

// AuditLog appends skip records to a plain text file, one line per skip.
type AuditLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewAuditLog creates an audit log writer targeting path.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, now: time.Now}
}

// Append writes one record. The file is opened append-only per call so the
// log survives daemon restarts and external rotation.
func (a *AuditLog) Append(record SkipRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if record.At.IsZero() {
		record.At = a.now()
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit log directory: %w", err)
	}
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	line := fmt.Sprintf("%s\t%s\t%d\t%s\t%s\n",
		record.At.UTC().Format(time.RFC3339),
		record.Codec,
		record.Size,
		record.Reason,
		record.Path,
	)
	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("append audit record: %w", err)
	}
	return file.Close()
}
