package toolsutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// defaultIgnoreDirs are directory names skipped during relative-path
// resolution regardless of .gitignore contents.
var defaultIgnoreDirs = []string{
	".git",
	".hg",
	".svn",
	".idea",
	".vscode",
	".cache",
	".venv",
	"venv",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"target",
	"out",
	"coverage",
	"__pycache__",
}

// LoadIgnoreSet merges the project's .gitignore with the built-in ignore set.
// Only plain directory/file names are honored; glob patterns and negations
// are ignored since resolution only needs coarse pruning.
func LoadIgnoreSet(fs afero.Fs, projectRoot string) map[string]struct{} {
	ignore := make(map[string]struct{}, len(defaultIgnoreDirs))
	for _, name := range defaultIgnoreDirs {
		ignore[name] = struct{}{}
	}

	f, err := fs.Open(filepath.Join(projectRoot, ".gitignore"))
	if err != nil {
		return ignore
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		line = strings.TrimSuffix(line, "/")
		if line == "" || strings.ContainsAny(line, "*?[") || strings.Contains(line, "/") {
			continue
		}
		ignore[line] = struct{}{}
	}
	return ignore
}

// ResolveRelative resolves a relative path against the project tree by
// looking for files whose path uniquely ends with the given suffix. Zero
// matches is a not-found error; multiple matches is an ambiguity error
// listing up to 3 candidates. Explicit parent traversal is rejected.
func ResolveRelative(fs afero.Fs, projectRoot, rel string) (string, error) {
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "..\\") {
		return "", fmt.Errorf("%w: parent-traversal path %q cannot be resolved, use an absolute path", ErrFileNotFound, rel)
	}

	ignore := LoadIgnoreSet(fs, projectRoot)
	suffix := string(os.PathSeparator) + filepath.Clean(rel)

	var matches []string
	err := afero.Walk(fs, projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if _, skip := ignore[info.Name()]; skip && path != projectRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, suffix) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search project tree: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no file matching %q under %s", ErrFileNotFound, rel, projectRoot)
	case 1:
		return matches[0], nil
	default:
		shown := matches
		if len(shown) > 3 {
			shown = shown[:3]
		}
		return "", fmt.Errorf("%w: %q matches %d files, e.g. %s; provide an absolute path",
			ErrAmbiguousPath, rel, len(matches), strings.Join(shown, ", "))
	}
}
