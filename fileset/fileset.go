// Package fileset writes model-generated file sets into a working copy
// without letting a hostile path escape it.
package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\w\s-]`)
	separatorRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns free text into a short identifier safe for file and
// branch names. Empty input gets a random fallback.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, "")
	text = separatorRe.ReplaceAllString(text, "_")
	if len(text) > 50 {
		text = text[:50]
	}
	if text == "" {
		return "demo_" + Suffix(8)
	}
	return text
}

// Suffix returns n random hex characters for unique branch names.
func Suffix(n int) string {
	u := uuid.New()
	s := strings.ReplaceAll(u.String(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Write stores each name/content pair under baseDir and returns the
// cleaned relative paths that were written, sorted. The whole set is
// validated before the first write: empty names, absolute paths, and
// paths that resolve outside baseDir are rejected.
func Write(files map[string]string, baseDir string) ([]string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		if err := validate(name, base); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		rel := filepath.Clean(name)
		target := filepath.Join(base, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(files[name]), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
	}
	return written, nil
}

func validate(name, base string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty filename supplied")
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("absolute path not allowed: %s", name)
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected in: %s", name)
		}
	}
	target := filepath.Join(base, filepath.Clean(name))
	if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return fmt.Errorf("file %s resolves outside project root", name)
	}
	return nil
}
