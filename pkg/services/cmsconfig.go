package services

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sitecms/pkg/models"
)

// LoadCMSConfig reads the site description at path. An empty path yields
// an empty config.
func LoadCMSConfig(path string) (*models.CMSConfig, error) {
	cfg := &models.CMSConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		// JSON is valid YAML.
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, p := range cfg.Pages {
		if err := validName("page", p.Name); err != nil {
			return nil, err
		}
		for _, s := range p.Sections {
			if err := validName("section", s.Key); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}
