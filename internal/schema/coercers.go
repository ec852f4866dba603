package schema

// coercers.go holds the named custom coercers that schema definitions refer
// to through the `coercer` key.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	coercers   = make(map[string]CoerceFunc)
	coercersMu sync.RWMutex
)

// now is replaced in tests.
var now = time.Now

// nonNumericRates are the rate sentinels reported as warnings.
var nonNumericRates = map[string]bool{
	"EXEMPTED":       true,
	"NOT_APPLICABLE": true,
	"OUT_OF_SCOPE":   true,
}

// dutyPercentRegex matches a duty such as "12.500%" once whitespace is removed.
var dutyPercentRegex = regexp.MustCompile(`^([0-9]+)[.]([0-9]{3})%$`)

// looseDateLayouts are accepted by the valid_date and future_date coercers
// after the schema's own date layout.
var looseDateLayouts = []string{
	"01/02/2006", "1/2/2006", "2006-01-02", "2006/01/02", "02.01.2006",
	"Jan 2, 2006", "2 Jan 2006", time.RFC3339,
}

// dateCoercers are the custom coercers bound to a schema's date layouts.
var dateCoercers = map[string]func(layouts []string) CoerceFunc{
	"valid_date":  validDateIn,
	"future_date": futureDateIn,
}

// dateLayouts returns layout followed by the loose layouts.
func dateLayouts(layout string) []string {
	out := make([]string, 0, len(looseDateLayouts)+1)
	out = append(out, layout)
	for _, l := range looseDateLayouts {
		if l != layout {
			out = append(out, l)
		}
	}
	return out
}

func init() {
	RegisterCoercer("member_state", coerceMemberState)
	RegisterCoercer("vat_rate", coerceVatRate)
	RegisterCoercer("digits", coerceDigits)
	RegisterCoercer("goods_code", coerceGoodsCode)
	RegisterCoercer("valid_date", coerceValidDate)
	RegisterCoercer("future_date", coerceFutureDate)
	RegisterCoercer("duty_percent", coerceDutyPercent)
}

// RegisterCoercer adds a named custom coercer.
// Panics if the name is already registered.
func RegisterCoercer(name string, fn CoerceFunc) {
	coercersMu.Lock()
	defer coercersMu.Unlock()

	if _, exists := coercers[name]; exists {
		panic(fmt.Sprintf("coercer already registered: %s", name))
	}
	coercers[name] = fn
}

// LookupCoercer returns the coercer registered under name.
func LookupCoercer(name string) (CoerceFunc, bool) {
	coercersMu.RLock()
	defer coercersMu.RUnlock()

	fn, ok := coercers[name]
	return fn, ok
}

// coerceMemberState keeps the code part of labels like "AT - Austria".
func coerceMemberState(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case string:
		code, _, _ := strings.Cut(v, " - ")
		return strings.TrimSpace(code), ""
	default:
		return nil, ErrorInvalid
	}
}

func coerceVatRate(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case float64:
		return decimal.NewFromFloat(v), ""
	case int:
		return decimal.NewFromInt(int64(v)), ""
	case string:
		s := strings.TrimSpace(v)
		if nonNumericRates[strings.ToUpper(s)] {
			return nil, ErrorWarning
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, ErrorInvalid
		}
		return d, ""
	default:
		return nil, ErrorInvalid
	}
}

func coerceDigits(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case string:
		d := digitsOnly(v)
		if d == "" {
			return nil, ""
		}
		return d, ""
	default:
		return nil, ErrorInvalid
	}
}

func coerceGoodsCode(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case string:
		code, err := ResolveGoodsCode(v)
		if err != nil {
			return nil, ErrorInvalid
		}
		return code, ""
	default:
		return nil, ErrorInvalid
	}
}

func coerceValidDate(raw any) (any, ErrorKind) {
	return validDateIn(dateLayouts(DefaultDateLayout))(raw)
}

func coerceFutureDate(raw any) (any, ErrorKind) {
	return futureDateIn(dateLayouts(DefaultDateLayout))(raw)
}

func validDateIn(layouts []string) CoerceFunc {
	return func(raw any) (any, ErrorKind) {
		switch v := raw.(type) {
		case nil:
			return nil, ""
		case time.Time:
			return v, ""
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range layouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t, ""
				}
			}
			return nil, ErrorInvalid
		default:
			return nil, ErrorInvalid
		}
	}
}

func futureDateIn(layouts []string) CoerceFunc {
	valid := validDateIn(layouts)
	return func(raw any) (any, ErrorKind) {
		v, kind := valid(raw)
		if v == nil || kind != "" {
			return v, kind
		}
		if !v.(time.Time).After(now()) {
			return nil, ErrorInvalid
		}
		return v, ""
	}
}

func coerceDutyPercent(raw any) (any, ErrorKind) {
	switch v := raw.(type) {
	case nil:
		return nil, ""
	case string:
		s := strings.Join(strings.Fields(v), "")
		if !dutyPercentRegex.MatchString(s) {
			return nil, ErrorInvalid
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return nil, ErrorInvalid
		}
		return decimal.NewFromFloat(f), ""
	default:
		return nil, ErrorInvalid
	}
}
