// Package schema provides declarative column schemas and the row validation
// engine used for reference-data uploads.
//
// A Schema is an ordered list of column labels, each mapped to a ColumnSpec
// that names the target property, the coercion applied to the raw cell and
// the constraints the coerced value must meet. Validate applies a Schema to
// decoded rows and returns the rows that passed together with every cell
// error it found.
package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the coercion strategy for a column.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindCustom  Kind = "custom"
)

// ErrorKind is the tag reported for a failed cell.
type ErrorKind string

const (
	ErrorRequired ErrorKind = "required"
	ErrorInvalid  ErrorKind = "invalid"
	// ErrorWarning marks a recognized non-numeric rate sentinel.
	ErrorWarning ErrorKind = "warning"
)

// ColumnSpec describes how one source column maps to a validated property.
type ColumnSpec struct {
	Label    string `yaml:"label"`
	Prop     string `yaml:"prop"`
	Kind     Kind   `yaml:"kind"`
	Coercer  string `yaml:"coercer,omitempty"`
	Required bool   `yaml:"required,omitempty"`

	// OneOf restricts non-null values to a fixed set.
	OneOf []string `yaml:"one_of,omitempty"`

	// OneOfRef names a reference list (see References) bound into OneOf
	// when the schema is built from a Catalog.
	OneOfRef string `yaml:"one_of_ref,omitempty"`
}

// Schema is an ordered set of column labels and their specs.
type Schema struct {
	Name    string
	Columns []string
	Specs   map[string]ColumnSpec

	// DateLayout is the Go layout of date cells. Empty means DefaultDateLayout.
	DateLayout string
}

// NewSchema builds a Schema whose column order follows specs.
func NewSchema(name string, specs ...ColumnSpec) Schema {
	s := Schema{
		Name:    name,
		Columns: make([]string, 0, len(specs)),
		Specs:   make(map[string]ColumnSpec, len(specs)),
	}
	for _, spec := range specs {
		s.Columns = append(s.Columns, spec.Label)
		s.Specs[spec.Label] = spec
	}
	return s
}

// RawRow maps a column label to the decoded cell value. Values are string,
// float64, bool or time.Time; empty cells are absent.
type RawRow map[string]any

// ValidatedRow maps a target property to its coerced value. Null values are
// never stored, so presence can be tested with Has.
type ValidatedRow map[string]any

// Has reports whether prop carries a non-null value.
func (r ValidatedRow) Has(prop string) bool {
	_, ok := r[prop]
	return ok
}

// String returns prop as text, or "" when absent.
func (r ValidatedRow) String(prop string) string {
	v, ok := r[prop]
	if !ok {
		return ""
	}
	return formatValue(v)
}

// Decimal returns prop as a decimal.
func (r ValidatedRow) Decimal(prop string) (decimal.Decimal, bool) {
	switch v := r[prop].(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Int returns prop truncated to an int.
func (r ValidatedRow) Int(prop string) (int, bool) {
	switch v := r[prop].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case decimal.Decimal:
		return int(v.IntPart()), true
	default:
		return 0, false
	}
}

// Time returns prop as a time.
func (r ValidatedRow) Time(prop string) (time.Time, bool) {
	t, ok := r[prop].(time.Time)
	return t, ok
}

// RowError reports one failed cell.
type RowError struct {
	Kind   ErrorKind `json:"error"`
	Row    int       `json:"row"`
	Column string    `json:"column"`
	Value  any       `json:"value"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Kind)
}

// formatValue renders a cell value as text.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return fmt.Sprint(t)
	}
}
