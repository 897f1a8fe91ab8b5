// Package schema holds the versioned, hand-authored description of the
// scouting table. The descriptor drives normalization, the CSV column order,
// the relational insert statement, and the text-generation prompt, and is
// checked against the live table at startup.
package schema

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the descriptor generation owned by the migrations.
const CurrentVersion = 3

//go:embed descriptors/*.yaml
var descriptorFS embed.FS

// Column types.
const (
	TypeInteger = "integer"
	TypeReal    = "real"
	TypeBoolean = "boolean"
	TypeText    = "text"
)

// Descriptor describes one generation of the scouting table.
type Descriptor struct {
	Version     int      `yaml:"version" json:"version"`
	Table       string   `yaml:"table" json:"table"`
	Description string   `yaml:"description" json:"description"`
	Bookkeeping []string `yaml:"bookkeeping" json:"bookkeeping"`
	Columns     []Column `yaml:"columns" json:"columns"`
	Groups      []Group  `yaml:"groups" json:"groups,omitempty"`

	index map[string]int
}

// Column is a single table column with its semantic annotations.
type Column struct {
	Name        string      `yaml:"name" json:"name"`
	Type        string      `yaml:"type" json:"type"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Required    bool        `yaml:"required" json:"required,omitempty"`
	Aliases     []string    `yaml:"aliases" json:"aliases,omitempty"`
	Points      float64     `yaml:"points" json:"points,omitempty"`
	Enum        []EnumValue `yaml:"enum" json:"enum,omitempty"`
	Derived     bool        `yaml:"derived" json:"derived,omitempty"`
}

// EnumValue is one allowed value of an enumerated text column.
type EnumValue struct {
	Value  string  `yaml:"value" json:"value"`
	Points float64 `yaml:"points" json:"points,omitempty"`
}

// Group is a nested scoring breakdown that flattens into <source>_<level> columns.
type Group struct {
	Source  string   `yaml:"source" json:"source"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
	Levels  []string `yaml:"levels" json:"levels"`
}

// Load returns the embedded descriptor for the given version.
func Load(version int) (*Descriptor, error) {
	data, err := descriptorFS.ReadFile(fmt.Sprintf("descriptors/v%d.yaml", version))
	if err != nil {
		return nil, fmt.Errorf("unknown schema version %d", version)
	}
	return Parse(data)
}

// Current returns the descriptor for CurrentVersion. It panics if the embedded
// artifact is broken, which the package tests rule out.
func Current() *Descriptor {
	d, err := Load(CurrentVersion)
	if err != nil {
		panic(err)
	}
	return d
}

// Versions lists the embedded descriptor versions in ascending order.
func Versions() []int {
	entries, _ := descriptorFS.ReadDir("descriptors")
	var out []int
	for _, e := range entries {
		var v int
		if _, err := fmt.Sscanf(e.Name(), "v%d.yaml", &v); err == nil {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// Parse decodes and validates a YAML descriptor.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) validate() error {
	if d.Table == "" {
		return fmt.Errorf("descriptor v%d: table is required", d.Version)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("descriptor v%d: no columns", d.Version)
	}
	d.index = make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		switch c.Type {
		case TypeInteger, TypeReal, TypeBoolean, TypeText:
		default:
			return fmt.Errorf("descriptor v%d: column %q has unknown type %q", d.Version, c.Name, c.Type)
		}
		if len(c.Enum) > 0 && c.Type != TypeText {
			return fmt.Errorf("descriptor v%d: enum on non-text column %q", d.Version, c.Name)
		}
		if _, dup := d.index[c.Name]; dup {
			return fmt.Errorf("descriptor v%d: duplicate column %q", d.Version, c.Name)
		}
		d.index[c.Name] = i
	}
	for _, g := range d.Groups {
		for _, lvl := range g.Levels {
			name := g.Source + "_" + strings.ToLower(lvl)
			if _, ok := d.index[name]; !ok {
				return fmt.Errorf("descriptor v%d: group %q level %q has no column %q", d.Version, g.Source, lvl, name)
			}
		}
	}
	return nil
}

// Column looks up a column by exact name.
func (d *Descriptor) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.Columns[i], true
}

// ColumnNames returns all column names in descriptor order.
func (d *Descriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// BooleanColumns returns the set of boolean-typed column names.
func (d *Descriptor) BooleanColumns() map[string]bool {
	out := make(map[string]bool)
	for _, c := range d.Columns {
		if c.Type == TypeBoolean {
			out[c.Name] = true
		}
	}
	return out
}

// DerivedColumn returns the derived scoring column, if the descriptor has one.
func (d *Descriptor) DerivedColumn() (Column, bool) {
	for _, c := range d.Columns {
		if c.Derived {
			return c, true
		}
	}
	return Column{}, false
}

// Score computes the derived scoring total for a normalized record from the
// descriptor's point values.
func (d *Descriptor) Score(rec map[string]any) float64 {
	var total float64
	for _, c := range d.Columns {
		if c.Derived {
			continue
		}
		v, ok := rec[c.Name]
		if !ok || v == nil {
			continue
		}
		switch c.Type {
		case TypeBoolean:
			if b, ok := v.(bool); ok && b {
				total += c.Points
			}
		case TypeInteger:
			if n, ok := v.(int64); ok {
				total += float64(n) * c.Points
			}
		case TypeReal:
			if f, ok := v.(float64); ok {
				total += f * c.Points
			}
		case TypeText:
			s, _ := v.(string)
			for _, e := range c.Enum {
				if e.Value == s {
					total += e.Points
				}
			}
		}
	}
	return total
}
