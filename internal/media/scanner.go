package media

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hound/internal/config"
	"hound/internal/logging"
	"hound/internal/services"
)

// Scanner enumerates candidate files under the configured watch roots.
type Scanner struct {
	roots      []string
	extensions map[string]struct{}
	minSize    int64
	logger     *slog.Logger
}

// NewScanner constructs a scanner from configuration.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	exts := make(map[string]struct{}, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		exts[ext] = struct{}{}
	}
	return &Scanner{
		roots:      append([]string(nil), cfg.Paths.WatchRoots...),
		extensions: exts,
		minSize:    cfg.MinSizeBytes(),
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks every watch root and returns matching files sorted by path.
// An unreachable root is logged and skipped; the error return is reserved
// for context cancellation so a flapping mount never aborts a cycle.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	var files []File
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(root); err != nil {
			s.logger.Warn("watch root unreachable; will retry next cycle",
				logging.String("root", root),
				logging.Error(services.Wrap(services.ErrTransient, "scan", "stat root", "", err)),
			)
			continue
		}
		rootFiles, err := s.scanRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		files = append(files, rootFiles...)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			s.logger.Debug("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := s.extensions[ext]; !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Debug("stat failed during walk", logging.String("path", path), logging.Error(err))
			return nil
		}
		if info.Size() < s.minSize {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, File{
			Path:     path,
			Root:     root,
			RelPath:  rel,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Category: inferCategory(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
