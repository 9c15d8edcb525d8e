package shop

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/rpgdash/internal/model"
)

// Catalog is the authoritative price list
type Catalog struct {
	entries map[string]model.CatalogEntry
	order   []string
}

type catalogFile struct {
	Items []model.CatalogEntry `yaml:"items"`
}

// DefaultEntries is the built-in price list used when no catalog file is configured
var DefaultEntries = []model.CatalogEntry{
	{Name: "bread", Price: 5, Label: "Bread", Icon: "🍞"},
	{Name: "potion", Price: 25, Label: "Healing Potion", Icon: "🧪"},
	{Name: "fishing rod", Price: 40, Label: "Fishing Rod", Icon: "🎣"},
	{Name: "elixir", Price: 60, Label: "Mana Elixir", Icon: "✨"},
	{Name: "shield", Price: 120, Label: "Wooden Shield", Icon: "🛡️"},
	{Name: "sword", Price: 150, Label: "Iron Sword", Icon: "🗡️"},
}

// NormalizeItemName lower-cases and trims an item name for lookup
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewCatalog builds a catalog, rejecting blank names, duplicates and non-positive prices
func NewCatalog(entries []model.CatalogEntry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]model.CatalogEntry, len(entries))}
	for _, e := range entries {
		e.Name = NormalizeItemName(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("%w: catalog item with empty name", model.ErrValidation)
		}
		if e.Price <= 0 {
			return nil, fmt.Errorf("%w: catalog item %q must have a positive price", model.ErrValidation, e.Name)
		}
		if _, dup := c.entries[e.Name]; dup {
			return nil, fmt.Errorf("%w: catalog item %q listed twice", model.ErrValidation, e.Name)
		}
		if e.Label == "" {
			e.Label = e.Name
		}
		c.entries[e.Name] = e
		c.order = append(c.order, e.Name)
	}
	return c, nil
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultEntries)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return NewCatalog(f.Items)
}

// Lookup finds an entry by name, ignoring case and surrounding space
func (c *Catalog) Lookup(name string) (model.CatalogEntry, bool) {
	e, ok := c.entries[NormalizeItemName(name)]
	return e, ok
}

// Entries returns the catalog in its configured order
func (c *Catalog) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name])
	}
	return out
}
