package agentstore

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the static set of agents and automation rules used to seed an empty store.
type Catalog struct {
	Agents []CatalogAgent `yaml:"agents"`
	Rules  []CatalogRule  `yaml:"rules"`
}

// CatalogAgent is one agent entry in catalog.yaml.
type CatalogAgent struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Status       string   `yaml:"status"`
	Description  string   `yaml:"description"`
	Confidence   *float64 `yaml:"confidence"`
	Capabilities []string `yaml:"capabilities"`
}

// CatalogRule is one automation rule entry in catalog.yaml.
type CatalogRule struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Trigger    string   `yaml:"trigger"`
	Conditions []string `yaml:"conditions"`
	Actions    []string `yaml:"actions"`
	Enabled    bool     `yaml:"enabled"`
	Schedule   string   `yaml:"schedule"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from path. Returns nil catalog and nil error if the file is missing.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, err
	}
	return c, c.Validate()
}

// Validate checks ids are present and unique and enum fields are known.
func (c Catalog) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, a := range c.Agents {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("agent #%d: id required", i))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("agent %q: duplicate id", a.ID))
		}
		seen[a.ID] = true
		if _, err := models.ParseAgentType(a.Type); err != nil {
			errs = append(errs, fmt.Errorf("agent %q: %w", a.ID, err))
		}
		if a.Status != "" {
			if _, err := models.ParseAgentStatus(a.Status); err != nil {
				errs = append(errs, fmt.Errorf("agent %q: %w", a.ID, err))
			}
		}
	}
	seenRules := make(map[string]bool)
	for i, r := range c.Rules {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("rule #%d: id required", i))
			continue
		}
		if seenRules[r.ID] {
			errs = append(errs, fmt.Errorf("rule %q: duplicate id", r.ID))
		}
		seenRules[r.ID] = true
	}
	return errors.Join(errs...)
}

func (c Catalog) agents() []models.Agent {
	out := make([]models.Agent, 0, len(c.Agents))
	for _, a := range c.Agents {
		status := models.AgentStatus(a.Status)
		if status == "" {
			status = models.AgentIdle
		}
		agent := models.Agent{
			ID:           a.ID,
			Name:         a.Name,
			Type:         models.AgentType(a.Type),
			Status:       status,
			Description:  a.Description,
			Capabilities: append([]string{}, a.Capabilities...),
		}
		if a.Confidence != nil {
			v := *a.Confidence
			agent.Confidence = &v
		}
		out = append(out, agent)
	}
	return out
}

func (c Catalog) rules() []models.AutomationRule {
	out := make([]models.AutomationRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		out = append(out, models.AutomationRule{
			ID:         r.ID,
			Name:       r.Name,
			Trigger:    r.Trigger,
			Conditions: append([]string{}, r.Conditions...),
			Actions:    append([]string{}, r.Actions...),
			Enabled:    r.Enabled,
			Schedule:   r.Schedule,
		})
	}
	return out
}
