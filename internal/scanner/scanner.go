// Package scanner walks a project tree and turns it into a set of
// candidate files plus a delta against the last-indexed state. Grounded on
// standardbeagle-lci's internal/indexing ScanDirectory (filepath.Walk with
// early directory pruning and symlink-cycle detection), generalized to use
// doublestar glob matching per spec.md §4.2 instead of the teacher's
// hand-rolled ** matcher.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/southerncoder/codegraph/internal/debuglog"
)

// FileInfo describes one file the walk decided to keep.
type FileInfo struct {
	Path    string // relative to root, forward-slash separated
	AbsPath string
	Size    int64
	ModTime time.Time
}

// Warning is a non-fatal scan finding, e.g. a file skipped for exceeding
// the configured size ceiling.
type Warning struct {
	Path    string
	Message string
}

// Scanner enumerates files under Root matching Includes and not matching
// Excludes.
type Scanner struct {
	Root        string
	Includes    []string
	Excludes    []string
	MaxFileSize int64
}

// New constructs a Scanner. A nil or empty Includes defaults to "**/*".
func New(root string, includes, excludes []string, maxFileSize int64) *Scanner {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	if maxFileSize <= 0 {
		maxFileSize = 2 * 1024 * 1024
	}
	return &Scanner{Root: root, Includes: includes, Excludes: excludes, MaxFileSize: maxFileSize}
}

// Scan walks the tree once, applying excludes first and then the include
// disjunction, per spec.md §4.2. Symbolic links are never followed out of
// the project root: a symlinked directory is skipped rather than
// traversed, and repeated real paths break cycles.
func (s *Scanner) Scan(ctx context.Context) ([]FileInfo, []Warning, error) {
	var files []FileInfo
	var warnings []Warning
	visitedDirs := make(map[string]bool)

	err := filepath.Walk(s.Root, func(path string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			debuglog.Tracef("scanner", "walk error at %s: %v", path, walkErr)
			return nil
		}

		if info.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visitedDirs[real] {
				return filepath.SkipDir
			}
			visitedDirs[real] = true

			if path == s.Root {
				return nil
			}
			rel := s.relSlash(path)
			if s.excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		rel := s.relSlash(path)
		if s.excluded(rel) {
			return nil
		}
		if !s.included(rel) {
			return nil
		}

		// A symlinked file resolving outside the root is not followed.
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if !s.withinRoot(target) {
				return nil
			}
			fi, err := os.Stat(target)
			if err != nil {
				return nil
			}
			if fi.IsDir() {
				return nil // a symlinked directory is skipped, not traversed
			}
			info = fi
		}

		if info.Size() > s.MaxFileSize {
			warnings = append(warnings, Warning{
				Path:    rel,
				Message: fmt.Sprintf("skipped: size %d exceeds max file size %d", info.Size(), s.MaxFileSize),
			})
			return nil
		}

		files = append(files, FileInfo{
			Path:    rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return files, warnings, nil
}

func (s *Scanner) relSlash(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) withinRoot(absPath string) bool {
	rel, err := filepath.Rel(s.Root, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) included(rel string) bool {
	for _, pattern := range s.Includes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
