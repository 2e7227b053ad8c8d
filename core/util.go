package core

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
)

// CleanString trims surrounding whitespace and byte order marks, which spreadsheet exports
// tend to leave in cells, and optionally lowers the result.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '\ufeff' })
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

var (
	rootOnce sync.Once
	rootDir  string
)

// ProjectRoot returns the closest parent of the working directory holding a go.mod file, so that
// tests run from a package directory still find config/. A deployed binary has no go.mod and
// gets its working directory.
func ProjectRoot() string {
	rootOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		rootDir = findRoot(wd)
	})
	return rootDir
}

func findRoot(start string) string {
	for dir := start; ; {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
