package input

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File extensions of the supported inputs.
const (
	PDBExt = ".pdb"
	NPExt  = ".np"
)

var (
	// ErrNoTargets is returned when no target paths are given at all.
	ErrNoTargets = errors.New("no targets provided")

	// ErrNoMatchingFiles is returned when the targets contain no file with
	// the wanted extension.
	ErrNoMatchingFiles = errors.New("no matching files found in targets")
)

// CollectTargets expands targets into the files with extension ext. Files
// are taken as given when their extension matches; directories are walked
// recursively. Anything else is logged and skipped. The result is sorted
// within each directory and keeps the order of targets otherwise.
func CollectTargets(targets []string, ext string, logger *slog.Logger) ([]string, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: expected %s files or directories", ErrNoTargets, ext)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var paths []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			logger.Warn("skipping unreadable target", "target", target, "error", err)
			continue
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(target), ext) {
				paths = append(paths, target)
			} else {
				logger.Warn("skipping target with unknown file type", "target", target, "want", ext)
			}
			continue
		}

		var found []string
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", target, err)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s in %v", ErrNoMatchingFiles, ext, targets)
	}
	return paths, nil
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
