package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type DiscoverOptions struct {
	// Extension is matched against the end of each file name, e.g. ".gaml".
	Extension string
	// SkipDirs are directory names that are never descended into.
	SkipDirs []string
	Logger   zerolog.Logger
}

// Discover returns every matching file under root in lexical depth-first
// order. An unreadable root is an error; unreadable subdirectories are logged
// and skipped.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	if opts.Extension == "" {
		return nil, errors.New("discover: extension is required")
	}
	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[d] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			opts.Logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, ok := skip[d.Name()]; ok {
				opts.Logger.Debug().Str("dir", path).Msg("skipping directory")
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), opts.Extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// relativeName renders path relative to root with forward slashes, falling
// back to the path itself when it is not under root.
func relativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
