package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// LoadSpeciesConfigs reads every *.yaml file in dir as a domain.SpeciesConfig, validates
// each one, and returns them keyed by ID. Per spec §9, a configuration document failing
// validation must abort startup rather than be silently skipped.
func LoadSpeciesConfigs(dir string) (map[string]domain.SpeciesConfig, error) {
	paths, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]domain.SpeciesConfig, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading species file %s: %w", path, err)
		}

		var cfg domain.SpeciesConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing species file %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: invalid species config %s: %w", path, err)
		}
		if _, exists := configs[cfg.ID]; exists {
			return nil, fmt.Errorf("config: duplicate species id %q", cfg.ID)
		}
		configs[cfg.ID] = cfg
	}
	return configs, nil
}

// yamlFiles lists .yaml/.yml files in dir in deterministic (sorted) order.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
