package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Category describes where a file belongs in the destination library.
type Category string

const (
	CategoryMovies Category = "movies"
	CategorySeries Category = "series"
)

// File is a read-only snapshot of a candidate media file taken at scan time.
type File struct {
	Path     string
	Root     string
	RelPath  string
	Size     int64
	ModTime  time.Time
	Category Category
}

// Name returns the base filename.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// DestinationDir returns the directory under destRoot that mirrors the
// file's source position, prefixed with its category subfolder.
func (f File) DestinationDir(destRoot string) string {
	relDir := filepath.Dir(f.RelPath)
	if relDir == "." {
		return filepath.Join(destRoot, string(f.Category))
	}
	return filepath.Join(destRoot, string(f.Category), relDir)
}

// inferCategory derives the library category from subtree position. Files
// nested two or more directories deep (Show/Season 01/episode.mkv) are
// series; everything shallower is a standalone movie.
func inferCategory(relPath string) Category {
	relDir := filepath.Dir(relPath)
	if relDir == "." {
		return CategoryMovies
	}
	depth := len(strings.Split(filepath.ToSlash(relDir), "/"))
	if depth >= 2 {
		return CategorySeries
	}
	return CategoryMovies
}
