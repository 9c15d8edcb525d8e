package model

// CatalogEntry is an item offered in the shop
type CatalogEntry struct {
	Name  string `yaml:"name" json:"name"`
	Price int64  `yaml:"price" json:"price"`
	Label string `yaml:"label" json:"label,omitempty"`
	Icon  string `yaml:"icon" json:"icon,omitempty"`
}
