package schema

// coerce.go implements the column coercion strategies.
//
// Every strategy satisfies the same contract: given the raw cell value it
// returns the typed value, or an ErrorKind describing why the cell was
// rejected. A nil value with an empty ErrorKind means the cell is null.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is the layout of date cells when a schema sets none (MM/DD/YYYY).
const DefaultDateLayout = "01/02/2006"

// Coercion converts one raw cell value to its typed form.
type Coercion interface {
	Coerce(raw any) (any, ErrorKind)
}

// CoerceFunc adapts a function to the Coercion interface.
type CoerceFunc func(raw any) (any, ErrorKind)

// Coerce calls f(raw).
func (f CoerceFunc) Coerce(raw any) (any, ErrorKind) {
	return f(raw)
}

type stringCoercion struct{}

func (stringCoercion) Coerce(raw any) (any, ErrorKind) {
	if raw == nil {
		return nil, ""
	}
	return formatValue(raw), ""
}

type numberCoercion struct{}

func (numberCoercion) Coerce(raw any) (any, ErrorKind) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, ErrorInvalid
		}
		f = parsed
	default:
		return nil, ErrorInvalid
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, ErrorInvalid
	}
	return f, ""
}

type booleanCoercion struct{}

func (booleanCoercion) Coerce(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case bool:
		return v, ""
	default:
		return nil, ErrorInvalid
	}
}

type dateCoercion struct {
	layout string
}

func (c dateCoercion) Coerce(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case time.Time:
		return v, ""
	case string:
		t, err := time.Parse(c.layout, strings.TrimSpace(v))
		if err != nil {
			return nil, ErrorInvalid
		}
		return t, ""
	default:
		return nil, ErrorInvalid
	}
}

// coercionFor resolves the strategy declared by spec. Date columns and the
// date coercers read cells in dateLayout first.
func coercionFor(spec ColumnSpec, dateLayout string) (Coercion, error) {
	switch spec.Kind {
	case KindString, "":
		return stringCoercion{}, nil
	case KindNumber:
		return numberCoercion{}, nil
	case KindBoolean:
		return booleanCoercion{}, nil
	case KindDate:
		return dateCoercion{layout: dateLayout}, nil
	case KindCustom:
		if build, ok := dateCoercers[spec.Coercer]; ok {
			return build(dateLayouts(dateLayout)), nil
		}
		fn, ok := LookupCoercer(spec.Coercer)
		if !ok {
			return nil, fmt.Errorf("unknown coercer %q", spec.Coercer)
		}
		return fn, nil
	default:
		return nil, fmt.Errorf("unknown column kind %q", spec.Kind)
	}
}
