// Package project reads the ember.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ember/internal/buildpipeline"
)

// Manifest is a decoded ember.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Package Package `toml:"package"`
	Build   Build   `toml:"build"`
}

// Package describes the [package] section.
type Package struct {
	Name string `toml:"name"`
}

// Build describes the [build] section. Empty values fall back to the CLI
// defaults.
type Build struct {
	Input        string `toml:"input"`
	Backend      string `toml:"backend"`
	OutDir       string `toml:"out_dir"`
	Lang         string `toml:"lang"`
	Entry        string `toml:"entry"`
	TargetTriple string `toml:"target_triple"`
	EmitIR       bool   `toml:"emit_ir"`
	Library      bool   `toml:"library"`
}

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrBuildSectionMissing indicates that [build] is missing.
	ErrBuildSectionMissing = errors.New("missing [build]")
)

// Load finds ember.toml from startDir upwards and decodes it. ok is false
// when there is no manifest.
func Load(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes and checks one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("build") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrBuildSectionMissing)
	}
	if !meta.IsDefined("build", "input") || strings.TrimSpace(cfg.Build.Input) == "" {
		return Config{}, fmt.Errorf("%s: missing [build].input", path)
	}
	if _, err := buildpipeline.ParseBackend(cfg.Build.Backend); err != nil {
		return Config{}, fmt.Errorf("%s: [build].backend: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	return cfg, nil
}

// InputPath resolves [build].input against the manifest directory.
func (m *Manifest) InputPath() (string, error) {
	rel := strings.TrimSpace(m.Config.Build.Input)
	path := filepath.Join(m.Root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [build].input does not exist: %s", m.Path, path)
		}
		return "", fmt.Errorf("%s: failed to stat [build].input: %w", m.Path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: [build].input must be a .json or .msgpack tree", m.Path)
	}
	return path, nil
}

// OutDir resolves [build].out_dir; the default is target/ next to the
// manifest.
func (m *Manifest) OutDir() string {
	dir := strings.TrimSpace(m.Config.Build.OutDir)
	if dir == "" {
		dir = "target"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}
