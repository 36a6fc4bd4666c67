package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"go.ngs.io/hydroviewer/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the per-variable schema table.
type Catalog struct {
	DefaultVariable string            `yaml:"default_variable" json:"default_variable"`
	Variables       []domain.Variable `yaml:"variables" json:"variables"`
	Profiles        []domain.Profile  `yaml:"profiles" json:"profiles"`
	DataTypes       []string          `yaml:"data_types" json:"data_types"`

	byName map[string]domain.Variable
}

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		if !fileExists(path) {
			return nil, fmt.Errorf("variable catalog %s does not exist", path)
		}
		//nolint:gosec // G304: path comes from operator configuration.
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read variable catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and indexes it by variable name.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode variable catalog: %w", err)
	}
	c.byName = make(map[string]domain.Variable, len(c.Variables))
	for i, v := range c.Variables {
		if v.Label == "" {
			c.Variables[i].Label = v.Name
		}
		if v.Reduction == "" {
			c.Variables[i].Reduction = domain.ReductionMean
		}
		c.byName[v.Name] = c.Variables[i]
	}
	if c.DefaultVariable == "" && len(c.Variables) > 0 {
		c.DefaultVariable = c.Variables[0].Name
	}
	if len(c.DataTypes) == 0 {
		c.DataTypes = []string{domain.DataTypeProbabilistic}
	}
	return &c, nil
}

// Validate checks that every entry is usable.
func (c *Catalog) Validate() error {
	if len(c.Variables) == 0 {
		return fmt.Errorf("variable catalog is empty")
	}
	if len(c.byName) != len(c.Variables) {
		return fmt.Errorf("variable catalog has duplicate names")
	}
	for _, v := range c.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable catalog entry without name")
		}
		if err := v.Family.Validate(); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if _, err := domain.ParseReduction(string(v.Reduction)); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}
	if _, ok := c.byName[c.DefaultVariable]; !ok {
		return fmt.Errorf("default variable %q is not in the catalog", c.DefaultVariable)
	}
	return nil
}

// Lookup returns the schema of the named variable.
func (c *Catalog) Lookup(name string) (domain.Variable, bool) {
	v, ok := c.byName[name]
	return v, ok
}

// HasProfile reports whether idx is a configured soil layer.
func (c *Catalog) HasProfile(idx int) bool {
	for _, p := range c.Profiles {
		if p.Index == idx {
			return true
		}
	}
	return false
}

// HasDataType reports whether dt is an offered data type.
func (c *Catalog) HasDataType(dt string) bool {
	for _, d := range c.DataTypes {
		if d == dt {
			return true
		}
	}
	return false
}
