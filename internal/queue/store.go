package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"hound/internal/fileutil"
	"hound/internal/logging"
	"hound/internal/services"
)

const documentVersion = 1

// Windows holds the staleness thresholds used by ReclaimStale.
type Windows struct {
	// EncodingStale is the reclaim window for entries stuck in encoding.
	EncodingStale time.Duration
	// ActiveStale is the reclaim window for every other active state.
	ActiveStale time.Duration
	// Cooldown is how long terminal entries are retained for deduplication.
	Cooldown time.Duration
}

// document is the on-disk envelope.
type document struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Store is the durable queue. All mutations are serialized through an
// advisory file lock held for the duration of the read-modify-write, so
// concurrent enqueues of the same path from different processes cannot both
// succeed.
type Store struct {
	path    string
	lock    *flock.Flock
	windows Windows
	logger  *slog.Logger
	now     func() time.Time
}

// Open prepares a store backed by the document at path. The document itself
// is created lazily on first write.
func Open(path string, windows Windows, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "queue", "open", "queue document path is empty", nil)
	}
	return &Store{
		path:    path,
		lock:    flock.New(path + ".lock"),
		windows: windows,
		logger:  logging.NewComponentLogger(logger, "queue"),
		now:     time.Now,
	}, nil
}

// TryEnqueue adds sourcePath as a queued entry. It returns the entry and
// whether it was newly added. An active entry for the same path, or a
// terminal one still inside the cooldown window, blocks the enqueue and is
// returned instead.
func (s *Store) TryEnqueue(sourcePath string) (Entry, bool, error) {
	var result Entry
	added := false
	err := s.mutate(func(doc *document) (bool, error) {
		now := s.now()
		if idx := findEntry(doc, sourcePath); idx >= 0 {
			existing := doc.Entries[idx]
			if existing.Status.IsActive() || existing.Age(now) < s.windows.Cooldown {
				result = existing
				return false, nil
			}
			// Terminal and past cooldown: the slot is free again.
			doc.Entries = append(doc.Entries[:idx], doc.Entries[idx+1:]...)
		}
		result = Entry{
			ID:         uuid.NewString(),
			SourcePath: sourcePath,
			Status:     StatusQueued,
			AddedAt:    now,
			UpdatedAt:  now,
		}
		doc.Entries = append(doc.Entries, result)
		added = true
		return true, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return result, added, nil
}

// UpdateStatus moves the entry for sourcePath to status, replacing its
// details. Invalid transitions are rejected with services.ErrValidation.
func (s *Store) UpdateStatus(sourcePath string, status Status, details string) (Entry, error) {
	var result Entry
	err := s.mutate(func(doc *document) (bool, error) {
		idx := findEntry(doc, sourcePath)
		if idx < 0 {
			return false, services.Wrap(services.ErrNotFound, "queue", "update", fmt.Sprintf("no entry for %s", sourcePath), nil)
		}
		entry := doc.Entries[idx]
		if !transitionAllowed(entry.Status, status) {
			return false, services.Wrap(services.ErrValidation, "queue", "update",
				fmt.Sprintf("transition %s -> %s not allowed for %s", entry.Status, status, sourcePath), nil)
		}
		entry.Status = status
		entry.Details = details
		entry.UpdatedAt = s.now()
		doc.Entries[idx] = entry
		result = entry
		return true, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return result, nil
}

// Touch refreshes the entry's UpdatedAt without changing its status, keeping
// long-running but healthy work out of the staleness reclaim.
func (s *Store) Touch(sourcePath string) error {
	return s.mutate(func(doc *document) (bool, error) {
		idx := findEntry(doc, sourcePath)
		if idx < 0 {
			return false, services.Wrap(services.ErrNotFound, "queue", "touch", fmt.Sprintf("no entry for %s", sourcePath), nil)
		}
		doc.Entries[idx].UpdatedAt = s.now()
		return true, nil
	})
}

// Remove deletes the entry for sourcePath if present.
func (s *Store) Remove(sourcePath string) error {
	return s.mutate(func(doc *document) (bool, error) {
		idx := findEntry(doc, sourcePath)
		if idx < 0 {
			return false, nil
		}
		doc.Entries = append(doc.Entries[:idx], doc.Entries[idx+1:]...)
		return true, nil
	})
}

// Clear removes every entry whose status is in statuses and returns how many
// were removed. With no statuses it clears the terminal ones.
func (s *Store) Clear(statuses ...Status) (int, error) {
	if len(statuses) == 0 {
		statuses = TerminalStatuses()
	}
	match := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		match[status] = struct{}{}
	}

	removed := 0
	err := s.mutate(func(doc *document) (bool, error) {
		kept := doc.Entries[:0]
		for _, entry := range doc.Entries {
			if _, ok := match[entry.Status]; ok {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		doc.Entries = kept
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Get returns the entry for sourcePath and whether it exists.
func (s *Store) Get(sourcePath string) (Entry, bool, error) {
	doc, err := s.read()
	if err != nil {
		return Entry{}, false, err
	}
	if idx := findEntry(doc, sourcePath); idx >= 0 {
		return doc.Entries[idx], true, nil
	}
	return Entry{}, false, nil
}

// List returns all entries ordered by AddedAt, then path.
func (s *Store) List() ([]Entry, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(doc.Entries))
	copy(entries, doc.Entries)
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.Before(entries[j].AddedAt)
		}
		return entries[i].SourcePath < entries[j].SourcePath
	})
	return entries, nil
}

// ListByStatus returns the entries in the given status, in List order.
func (s *Store) ListByStatus(status Status) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// Stats summarizes the queue contents.
type Stats struct {
	Total    int
	ByStatus map[Status]int
}

// Stats returns entry counts per status.
func (s *Store) Stats() (Stats, error) {
	doc, err := s.read()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(doc.Entries), ByStatus: make(map[Status]int)}
	for _, entry := range doc.Entries {
		stats.ByStatus[entry.Status]++
	}
	return stats, nil
}

// ReclaimReport describes the outcome of one reclaim pass. Reclaimed
// entries were abandoned mid-flight; Expired ones aged out of the cooldown.
type ReclaimReport struct {
	Reclaimed []Entry
	Expired   []Entry
}

// ReclaimStale deletes abandoned and aged-out entries. Active entries whose
// last update is older than their staleness window are presumed orphaned by
// a dead process and removed, which makes their source paths immediately
// re-admissible. Terminal entries past the cooldown are removed as well.
//
// The elapsed-time heuristic cannot tell a dead owner from a slow one; a
// still-running process whose entry was reclaimed will duplicate work.
func (s *Store) ReclaimStale() (ReclaimReport, error) {
	var report ReclaimReport
	err := s.mutate(func(doc *document) (bool, error) {
		now := s.now()
		changed := false
		kept := doc.Entries[:0]
		for _, entry := range doc.Entries {
			window := s.windowFor(entry.Status)
			if entry.Age(now) >= window {
				if entry.Status.IsTerminal() {
					report.Expired = append(report.Expired, entry)
				} else {
					report.Reclaimed = append(report.Reclaimed, entry)
				}
				changed = true
				continue
			}
			kept = append(kept, entry)
		}
		doc.Entries = kept
		return changed, nil
	})
	if err != nil {
		return ReclaimReport{}, err
	}
	for _, entry := range report.Reclaimed {
		s.logger.Warn("reclaimed stale entry",
			logging.String("path", entry.SourcePath),
			logging.String("status", string(entry.Status)),
		)
	}
	return report, nil
}

func (s *Store) windowFor(status Status) time.Duration {
	switch {
	case status.IsTerminal():
		return s.windows.Cooldown
	case status == StatusEncoding:
		return s.windows.EncodingStale
	default:
		return s.windows.ActiveStale
	}
}

// mutate runs fn under the exclusive lock and persists the document when fn
// reports a change.
func (s *Store) mutate(fn func(doc *document) (bool, error)) error {
	if err := s.lock.Lock(); err != nil {
		return services.Wrap(services.ErrTransient, "queue", "lock", "acquire queue lock", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.persist(doc)
}

func (s *Store) read() (*document, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "queue", "lock", "acquire queue read lock", err)
	}
	defer func() { _ = s.lock.Unlock() }()
	return s.load()
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{Version: documentVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// A torn or hand-mangled document must not wedge the daemon. Set
		// it aside for inspection and start over.
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return nil, fmt.Errorf("quarantine corrupt queue document: %w", renameErr)
		}
		s.logger.Error("queue document corrupt, starting fresh",
			logging.String("quarantined", aside),
			logging.Error(err),
		)
		return &document{Version: documentVersion}, nil
	}
	if doc.Version == 0 {
		doc.Version = documentVersion
	}
	return &doc, nil
}

func (s *Store) persist(doc *document) error {
	doc.Version = documentVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue document: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist queue document: %w", err)
	}
	return nil
}

func findEntry(doc *document, sourcePath string) int {
	for i, entry := range doc.Entries {
		if entry.SourcePath == sourcePath {
			return i
		}
	}
	return -1
}
