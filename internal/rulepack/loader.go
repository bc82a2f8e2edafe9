// Package rulepack loads YAML validation rule packs, validates them
// structurally, and computes checksums so the composition root can tell
// which packs changed between deploys.
package rulepack

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bosflow/bosflow/model"
)

// RulePack is a declarative rule set for one category, loaded from YAML.
type RulePack struct {
	Category string                 `yaml:"category"`
	Version  string                 `yaml:"version"`
	Rules    []model.ValidationRule `yaml:"rules"`

	// Populated by the loader, not the file.
	Checksum   string `yaml:"-"`
	SourceFile string `yaml:"-"`
}

// Loader scans directories for YAML rule pack files, parses them, and
// computes SHA-256 checksums.
type Loader struct{}

// NewLoader creates a new rule pack Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadAll recursively scans directories for *.yaml and *.yml files and
// parses each into a RulePack.
func (l *Loader) LoadAll(directories []string) ([]RulePack, error) {
	var packs []RulePack

	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}

			pack, err := l.LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			packs = append(packs, pack)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}

	return packs, nil
}

// LoadFile loads and parses a single YAML rule pack file. It computes
// the SHA-256 checksum and records the source file path.
func (l *Loader) LoadFile(path string) (RulePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RulePack{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var pack RulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return RulePack{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	pack.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	pack.SourceFile = path
	return pack, nil
}
