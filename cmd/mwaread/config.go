package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// JobConfig describes one ingest job: the input files (listed directly or by
// glob) and the reader options.
type JobConfig struct {
	Files             []string `yaml:"files"`
	Globs             []string `yaml:"globs"`
	UseCotterFlags    bool     `yaml:"use_cotter_flags"`
	SkipCheck         bool     `yaml:"skip_check"`
	SkipAcceptability bool     `yaml:"skip_acceptability"`
	Workers           int      `yaml:"workers"`
}

// LoadJobConfig reads and parses a YAML job file.
func LoadJobConfig(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg JobConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve expands the globs and merges them with the explicit file list,
// deduplicated and sorted.
func (c *JobConfig) Resolve() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range c.Files {
		add(f)
	}
	for _, g := range c.Globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", g, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("glob %q matched no files", g)
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(out)
	return out, nil
}
