package config

import (
	_ "embed"
	"fmt"
	"os"

	"storefront/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// LoadProducts reads a YAML product list from path, or the built-in
// catalog when path is empty.
func LoadProducts(path string) ([]domain.Product, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	return parseProducts(data)
}

func parseProducts(data []byte) ([]domain.Product, error) {
	var doc struct {
		Products []domain.Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Products))
	for i, p := range doc.Products {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("catalog: product %d has no id", i)
		case seen[p.ID]:
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		case p.Price < 0:
			return nil, fmt.Errorf("catalog: product %q has a negative price", p.ID)
		}
		seen[p.ID] = true
	}
	return doc.Products, nil
}
