package analyzer

import (
	"path/filepath"
	"strings"
)

// MatchesGlob checks if a source path matches any of the include patterns
// and none of the exclude patterns. An empty include list matches every path.
func MatchesGlob(path string, includePatterns []string, excludePatterns []string) bool {
	path = filepath.ToSlash(path)

	for _, pattern := range excludePatterns {
		if globMatch(path, filepath.ToSlash(pattern)) {
			return false
		}
	}

	if len(includePatterns) == 0 {
		return true
	}
	for _, pattern := range includePatterns {
		if globMatch(path, filepath.ToSlash(pattern)) {
			return true
		}
	}
	return false
}

// globMatch matches a path against a glob pattern with ** support.
// "src/**/*.controller.ts" matches any file under a "src/" directory whose
// name matches "*.controller.ts".
func globMatch(path, pattern string) bool {
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	if !strings.Contains(pattern, "**") {
		matched, _ := filepath.Match(filepath.Base(pattern), filepath.Base(path))
		return matched
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	remaining := path
	if prefix != "" {
		// Anchor at the start of the path or at any directory boundary.
		switch {
		case strings.HasPrefix(path, prefix+"/"):
			remaining = path[len(prefix)+1:]
		default:
			idx := strings.Index(path, "/"+prefix+"/")
			if idx < 0 {
				return false
			}
			remaining = path[idx+len(prefix)+2:]
		}
	}
	if suffix == "" {
		return true
	}
	if matched, _ := filepath.Match(suffix, filepath.Base(remaining)); matched {
		return true
	}
	matched, _ := filepath.Match(suffix, remaining)
	return matched
}
