// Package discovery turns free conversational text into protection-item
// Findings. Classification is pure keyword matching; persistence lives in
// the services package.
package discovery

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// CatalogItem describes one protection-item category.
type CatalogItem struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the ordered set of known protection-item categories.
type Catalog struct {
	items []CatalogItem
	byKey map[string]CatalogItem
}

type catalogFile struct {
	Items []CatalogItem `yaml:"items"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	c := &Catalog{
		items: make([]CatalogItem, 0, len(file.Items)),
		byKey: make(map[string]CatalogItem, len(file.Items)),
	}
	for i, item := range file.Items {
		if item.Key == "" || item.Name == "" {
			return nil, fmt.Errorf("catalog item %d: key and name are required", i)
		}
		if _, dup := c.byKey[item.Key]; dup {
			return nil, fmt.Errorf("catalog item %d: duplicate key %q", i, item.Key)
		}
		c.items = append(c.items, item)
		c.byKey[item.Key] = item
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded
// document is malformed, which only a broken build can cause.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Items returns the catalog entries in scan order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (CatalogItem, bool) {
	item, ok := c.byKey[key]
	return item, ok
}
