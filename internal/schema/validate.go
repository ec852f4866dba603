package schema

// validate.go applies a Schema to decoded rows.
//
// Validation happens at two levels:
//  1. Schema validation: every column must have a spec with a target
//     property, otherwise a ConfigError is returned before any row is read
//  2. Row validation: each cell is coerced and checked against the
//     required and one-of constraints of its column
//
// A row only reaches the output when all of its cells passed. Errors of
// every row are collected regardless, numbered as they appear in the source
// file (data row index + 2, accounting for the header line).

import (
	"fmt"
	"strings"
)

// headerOffset converts a 0-based data row index to the displayed row number.
const headerOffset = 2

// ConfigError reports a malformed schema.
type ConfigError struct {
	Schema string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("schema %s: %s", e.Schema, e.Reason)
	}
	return "schema: " + e.Reason
}

// EmptyInputError is returned when no row passed validation.
type EmptyInputError struct {
	Schema string
}

func (e *EmptyInputError) Error() string {
	return "File contains invalid data."
}

type boundColumn struct {
	label    string
	spec     ColumnSpec
	coerce   Coercion
	oneOf    map[string]struct{}
	hasOneOf bool
}

// RowValidator validates rows against a schema.
type RowValidator struct {
	name    string
	columns []boundColumn
}

// NewRowValidator checks the schema and resolves the coercion of every column.
func NewRowValidator(s Schema) (*RowValidator, error) {
	if len(s.Columns) == 0 {
		return nil, &ConfigError{Schema: s.Name, Reason: "Schema columns not defined"}
	}

	layout := s.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}

	v := &RowValidator{name: s.Name, columns: make([]boundColumn, 0, len(s.Columns))}
	for _, label := range s.Columns {
		spec, ok := s.Specs[label]
		if !ok {
			return nil, &ConfigError{Schema: s.Name, Reason: fmt.Sprintf("Schema entry not defined for column %s", label)}
		}
		if strings.TrimSpace(spec.Prop) == "" {
			return nil, &ConfigError{Schema: s.Name, Reason: fmt.Sprintf("Schema prop not defined for column %s", label)}
		}
		c, err := coercionFor(spec, layout)
		if err != nil {
			return nil, &ConfigError{Schema: s.Name, Reason: fmt.Sprintf("column %s: %v", label, err)}
		}

		col := boundColumn{label: label, spec: spec, coerce: c}
		if spec.OneOf != nil {
			col.hasOneOf = true
			col.oneOf = make(map[string]struct{}, len(spec.OneOf))
			for _, allowed := range spec.OneOf {
				col.oneOf[allowed] = struct{}{}
			}
		}
		v.columns = append(v.columns, col)
	}
	return v, nil
}

// ValidateRow validates the row at 0-based index i. The returned row is nil
// when any cell failed.
func (v *RowValidator) ValidateRow(i int, row RawRow) (ValidatedRow, []RowError) {
	out := make(ValidatedRow, len(v.columns))
	var errs []RowError

	for _, col := range v.columns {
		raw := cellValue(row, col.label)

		value, kind := col.coerce.Coerce(raw)
		if kind == "" && value == nil && col.spec.Required {
			kind = ErrorRequired
		}
		if kind == "" && value != nil && col.hasOneOf {
			if _, ok := col.oneOf[formatValue(value)]; !ok {
				kind = ErrorInvalid
			}
		}

		if kind != "" {
			errs = append(errs, RowError{
				Kind:   kind,
				Row:    i + headerOffset,
				Column: col.label,
				Value:  raw,
			})
			continue
		}
		if value != nil {
			out[col.spec.Prop] = value
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// Validate applies s to rows. It returns every row without cell errors and
// the errors of all rows. A ConfigError is returned for a malformed schema
// and an EmptyInputError when no row passed.
func Validate(rows []RawRow, s Schema) ([]ValidatedRow, []RowError, error) {
	v, err := NewRowValidator(s)
	if err != nil {
		return nil, nil, err
	}

	valid := make([]ValidatedRow, 0, len(rows))
	var errs []RowError
	for i, row := range rows {
		out, rowErrs := v.ValidateRow(i, row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		valid = append(valid, out)
	}

	if len(valid) == 0 {
		return nil, errs, &EmptyInputError{Schema: s.Name}
	}
	return valid, errs, nil
}

// cellValue returns the raw cell, treating blank text as absent.
func cellValue(row RawRow, label string) any {
	raw, ok := row[label]
	if !ok {
		return nil
	}
	if s, isStr := raw.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	return raw
}
