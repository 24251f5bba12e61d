package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are never offered as reference candidates.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// expandRefs expands --ref values relative to workDir. Glob patterns keep
// only matching directories, sorted; a pattern that matches nothing is an
// error. Plain paths pass through untouched so validation can report them.
func expandRefs(patterns []string, workDir string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workDir, pattern)
		}

		if !hasMeta(pattern) {
			add(filepath.Clean(abs))
			continue
		}

		matches, err := doublestar.FilepathGlob(abs)
		if err != nil {
			return nil, fmt.Errorf("expand ref %q: %w", pattern, err)
		}

		var dirs []string
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				dirs = append(dirs, m)
			}
		}
		if len(dirs) == 0 {
			return nil, fmt.Errorf("ref pattern %q matched no directories", pattern)
		}

		sort.Strings(dirs)
		for _, d := range dirs {
			add(d)
		}
	}

	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// candidateDirs lists directories up to two levels below workDir that can be
// offered as references. Hidden directories and dependency folders are
// skipped. Paths are returned relative to workDir.
func candidateDirs(workDir string) ([]string, error) {
	fsys := os.DirFS(workDir)

	matches, err := doublestar.Glob(fsys, "{*,*/*}")
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}

	var dirs []string
	for _, m := range matches {
		if skipCandidate(m) {
			continue
		}
		info, err := fs.Stat(fsys, m)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, m)
	}

	sort.Strings(dirs)
	return dirs, nil
}

func skipCandidate(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") || skipDirs[seg] {
			return true
		}
	}
	return false
}
