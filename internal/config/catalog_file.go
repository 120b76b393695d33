package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// CatalogFile is the optional YAML file that overrides priority SLAs and
// support tier roles.
//
//	priorities:
//	  HIGH: {color: 0xff9900, max_response_hours: 4}
//	support_tiers:
//	  TIER1: "1234"
type CatalogFile struct {
	Priorities   map[string]PriorityOverride `yaml:"priorities"`
	SupportTiers map[string]string           `yaml:"support_tiers"`
}

// PriorityOverride replaces the color and response time of one level.
type PriorityOverride struct {
	Color            int `yaml:"color"`
	MaxResponseHours int `yaml:"max_response_hours"`
}

// LoadCatalogFile decodes path.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	var file CatalogFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}
	for level, o := range file.Priorities {
		if o.MaxResponseHours <= 0 {
			return nil, fmt.Errorf("priority %s: max_response_hours must be positive", level)
		}
	}
	return &file, nil
}

// PriorityCatalog returns the default catalog with file overrides applied.
func (c CatalogFile) PriorityCatalog() *domain.PriorityCatalog {
	catalog := domain.DefaultPriorityCatalog()
	if len(c.Priorities) == 0 {
		return catalog
	}
	overrides := make([]domain.PriorityProfile, 0, len(c.Priorities))
	for level, o := range c.Priorities {
		overrides = append(overrides, domain.PriorityProfile{
			Level:           domain.TicketPriority(level),
			Color:           o.Color,
			MaxResponseTime: o.MaxResponseHours,
		})
	}
	return catalog.With(overrides)
}
