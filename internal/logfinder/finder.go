// Package logfinder expands command-line inputs into log file paths.
package logfinder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zyedidia/glob"
)

// Sentinel errors.
var (
	ErrNoLogFiles = errors.New("no log files found")
)

// DefaultExtensions are the file extensions picked up from directories.
var DefaultExtensions = []string{".log", ".txt"}

// globMeta are the characters that make an input a glob pattern.
const globMeta = "*?[{"

// Expand turns files, directories and glob patterns into a list of regular
// files, in input order without duplicates.
//
//   - A file is used as is.
//   - A directory contributes its files with a DefaultExtensions extension
//     (not recursive), sorted by name.
//   - A glob is matched against every regular file below its longest
//     literal directory prefix. "*" also matches "/", and "{a,b}"
//     alternatives are supported.
//
// Returns ErrNoLogFiles if nothing matched.
func Expand(inputs []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		if strings.ContainsAny(in, globMeta) {
			matches, err := expandGlob(in)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		switch {
		case info.IsDir():
			files, err := listDir(in)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case info.Mode().IsRegular():
			add(in)
		default:
			return nil, fmt.Errorf("%s: not a regular file or directory", in)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoLogFiles
	}
	return out, nil
}

func expandGlob(pattern string) ([]string, error) {
	g, err := glob.Compile(filepath.ToSlash(filepath.Clean(pattern)))
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}

	var matches []string
	err = filepath.WalkDir(literalPrefix(pattern), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && g.MatchString(filepath.ToSlash(path)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// literalPrefix returns the directory part of pattern before the first
// path element containing glob syntax.
func literalPrefix(pattern string) string {
	elems := strings.Split(filepath.ToSlash(pattern), "/")
	var lit []string
	for _, e := range elems[:len(elems)-1] {
		if strings.ContainsAny(e, globMeta) {
			break
		}
		lit = append(lit, e)
	}
	if len(lit) == 0 {
		return "."
	}
	prefix := strings.Join(lit, "/")
	if prefix == "" {
		return "/"
	}
	return filepath.FromSlash(prefix)
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasLogExt(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func hasLogExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range DefaultExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// logCandidate holds a log file path and its cached modification time.
// This avoids races where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the most recently modified log file in dir.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	files, err := listDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing log files: %w", err)
	}

	candidates := make([]logCandidate, 0, len(files))
	for _, f := range files {
		info, err := os.Lstat(f)
		if err != nil {
			// Deleted since listing.
			continue
		}
		candidates = append(candidates, logCandidate{path: f, modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})
	return candidates[0].path, nil
}
