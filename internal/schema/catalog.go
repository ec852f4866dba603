package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Reference list names usable in one_of_ref.
const (
	RefCountries  = "countries"
	RefGoodsCodes = "goods_codes"
)

//go:embed schemas.yaml
var defaultCatalogYAML []byte

// References holds the reference lists bound into one_of_ref columns.
type References map[string][]string

// Catalog is a set of named column schemas.
type Catalog struct {
	order      []string
	schemas    map[string][]ColumnSpec
	dateLayout string
}

type catalogFile struct {
	Schemas []struct {
		Name    string       `yaml:"name"`
		Columns []ColumnSpec `yaml:"columns"`
	} `yaml:"schemas"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog reads a catalog from a YAML file. An empty path returns the
// embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema catalog: %w", err)
	}

	c := &Catalog{schemas: make(map[string][]ColumnSpec, len(f.Schemas))}
	for _, s := range f.Schemas {
		if s.Name == "" {
			return nil, &ConfigError{Reason: "schema without name"}
		}
		if _, dup := c.schemas[s.Name]; dup {
			return nil, &ConfigError{Schema: s.Name, Reason: "defined twice"}
		}
		c.order = append(c.order, s.Name)
		c.schemas[s.Name] = s.Columns
	}
	return c, nil
}

// WithDateLayout returns a copy of c whose schemas read date cells in layout.
func (c *Catalog) WithDateLayout(layout string) *Catalog {
	cp := *c
	cp.dateLayout = layout
	return &cp
}

// Names returns the schema names in definition order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// RefsFor returns the reference lists required by the named schemas, sorted.
func (c *Catalog) RefsFor(names ...string) []string {
	seen := make(map[string]bool)
	for _, name := range names {
		for _, col := range c.schemas[name] {
			if col.OneOfRef != "" {
				seen[col.OneOfRef] = true
			}
		}
	}
	refs := make([]string, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}

// Schema builds the named schema, binding refs into one_of_ref columns.
func (c *Catalog) Schema(name string, refs References) (Schema, error) {
	cols, ok := c.schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("unknown schema: %s", name)
	}

	specs := make([]ColumnSpec, len(cols))
	for i, col := range cols {
		if col.OneOfRef != "" {
			list, ok := refs[col.OneOfRef]
			if !ok {
				return Schema{}, &ConfigError{
					Schema: name,
					Reason: fmt.Sprintf("reference list %q not provided for column %s", col.OneOfRef, col.Label),
				}
			}
			col.OneOf = append([]string{}, list...)
		}
		specs[i] = col
	}
	s := NewSchema(name, specs...)
	s.DateLayout = c.dateLayout
	return s, nil
}
