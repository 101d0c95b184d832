// Package catalog loads the product catalog and renders its paged views.
package catalog

import (
    _ "embed"
    "fmt"
    "os"

    yaml "gopkg.in/yaml.v3"

    "lojabot/internal/model"
)

//go:embed products.yaml
var defaultProducts []byte

// Catalog is the immutable in-process product list. Products keeps file
// order, which defines paging order; byID serves direct lookups.
type Catalog struct {
    Products []model.Product
    byID     map[string]model.Product
}

type catalogFile struct {
    Products []model.Product `yaml:"products"`
}

// Load reads the catalog from path, or from the embedded default when path is
// empty. Duplicate or empty product IDs are a configuration error.
func Load(path string) (*Catalog, error) {
    data := defaultProducts
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil {
            return nil, fmt.Errorf("read catalog: %w", err)
        }
        data = b
    }
    var f catalogFile
    if err := yaml.Unmarshal(data, &f); err != nil {
        return nil, fmt.Errorf("parse catalog: %w", err)
    }
    c := &Catalog{Products: f.Products, byID: make(map[string]model.Product, len(f.Products))}
    for _, p := range f.Products {
        if p.ID == "" {
            return nil, fmt.Errorf("catalog product %q has no id", p.Name)
        }
        if _, dup := c.byID[p.ID]; dup {
            return nil, fmt.Errorf("catalog has duplicate product id %q", p.ID)
        }
        c.byID[p.ID] = p
    }
    return c, nil
}

// Get returns the product with the given ID.
func (c *Catalog) Get(id string) (model.Product, bool) {
    p, ok := c.byID[id]
    return p, ok
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.Products) }
