package buildpipeline

import (
	"path/filepath"
	"strings"
)

// displayName shortens path for progress output: relative to baseDir (or
// the working directory) when that does not climb out of it.
func displayName(path, baseDir string) string {
	if path == "" {
		return ""
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return filepath.ToSlash(clean)
	}
	if baseDir == "" {
		wd, err := filepath.Abs(".")
		if err != nil {
			return filepath.ToSlash(clean)
		}
		baseDir = wd
	}
	rel, err := filepath.Rel(baseDir, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(clean)
	}
	return filepath.ToSlash(rel)
}

// outputStem derives the artefact base name from the input path or the
// namespace name.
func outputStem(input, fallback string) string {
	if input != "" {
		base := filepath.Base(input)
		for _, ext := range []string{".msgpack", ".json"} {
			if strings.HasSuffix(base, ext) {
				return strings.TrimSuffix(base, ext)
			}
		}
		return base
	}
	if fallback != "" {
		return fallback
	}
	return "out"
}
