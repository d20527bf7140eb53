package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// LoadHatchConfigs reads every *.yaml file in dir as a domain.HatchConfig, validates
// each one, and returns them keyed by ID.
func LoadHatchConfigs(dir string) (map[string]domain.HatchConfig, error) {
	paths, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]domain.HatchConfig, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading hatch file %s: %w", path, err)
		}

		var cfg domain.HatchConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing hatch file %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: invalid hatch config %s: %w", path, err)
		}
		if _, exists := configs[cfg.ID]; exists {
			return nil, fmt.Errorf("config: duplicate hatch id %q", cfg.ID)
		}
		configs[cfg.ID] = cfg
	}
	return configs, nil
}
