package schema

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Built-in kinds
// ============================================================================

func TestNumberCoercion(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		want     any
		wantKind ErrorKind
	}{
		{name: "float", raw: 12.5, want: 12.5},
		{name: "int", raw: 7, want: 7.0},
		{name: "numeric text", raw: " 4 ", want: 4.0},
		{name: "nil is null", raw: nil, want: nil},
		{name: "text", raw: "abc", wantKind: ErrorInvalid},
		{name: "infinity", raw: math.Inf(1), wantKind: ErrorInvalid},
		{name: "nan", raw: math.NaN(), wantKind: ErrorInvalid},
		{name: "bool", raw: true, wantKind: ErrorInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, kind := numberCoercion{}.Coerce(tt.raw)
			if kind != tt.wantKind {
				t.Fatalf("Coerce(%v) kind = %q, want %q", tt.raw, kind, tt.wantKind)
			}
			if kind == "" && got != tt.want {
				t.Errorf("Coerce(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBooleanCoercion_ExactTypeOnly(t *testing.T) {
	if v, kind := (booleanCoercion{}).Coerce(true); kind != "" || v != true {
		t.Errorf("Coerce(true) = %v, %q", v, kind)
	}
	for _, raw := range []any{"true", 1.0, "yes"} {
		if _, kind := (booleanCoercion{}).Coerce(raw); kind != ErrorInvalid {
			t.Errorf("Coerce(%v) kind = %q, want invalid", raw, kind)
		}
	}
}

func TestDateCoercion(t *testing.T) {
	c := dateCoercion{layout: DefaultDateLayout}

	got, kind := c.Coerce("03/15/2024")
	if kind != "" {
		t.Fatalf("Coerce kind = %q, want none", kind)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Errorf("Coerce = %v, want %v", got, want)
	}

	for _, raw := range []any{"2024-03-15", "13/45/2024", 45000.0} {
		if _, kind := c.Coerce(raw); kind != ErrorInvalid {
			t.Errorf("Coerce(%v) kind = %q, want invalid", raw, kind)
		}
	}

	native := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if v, kind := c.Coerce(native); kind != "" || !v.(time.Time).Equal(native) {
		t.Errorf("Coerce(time) = %v, %q", v, kind)
	}
}

func TestStringCoercion_FormatsNumbers(t *testing.T) {
	v, kind := stringCoercion{}.Coerce(12.0)
	if kind != "" || v != "12" {
		t.Errorf("Coerce(12.0) = %v, %q, want \"12\"", v, kind)
	}
}

// ============================================================================
// Custom coercers
// ============================================================================

func TestCoerceVatRate(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		want     string
		wantKind ErrorKind
	}{
		{name: "number", raw: 21.0, want: "21"},
		{name: "numeric text", raw: "5.5", want: "5.5"},
		{name: "exempted", raw: "EXEMPTED", wantKind: ErrorWarning},
		{name: "not applicable", raw: "NOT_APPLICABLE", wantKind: ErrorWarning},
		{name: "out of scope", raw: "OUT_OF_SCOPE", wantKind: ErrorWarning},
		{name: "garbage", raw: "twenty", wantKind: ErrorInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, kind := coerceVatRate(tt.raw)
			if kind != tt.wantKind {
				t.Fatalf("coerceVatRate(%v) kind = %q, want %q", tt.raw, kind, tt.wantKind)
			}
			if kind == "" && got.(decimal.Decimal).String() != tt.want {
				t.Errorf("coerceVatRate(%v) = %v, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCoerceMemberState(t *testing.T) {
	got, kind := coerceMemberState("AT - Austria")
	if kind != "" || got != "AT" {
		t.Errorf("coerceMemberState = %v, %q, want AT", got, kind)
	}
	if _, kind := coerceMemberState(3.0); kind != ErrorInvalid {
		t.Errorf("coerceMemberState(number) kind = %q, want invalid", kind)
	}
}

func TestCoerceDigits(t *testing.T) {
	got, kind := coerceDigits("0301 19-00")
	if kind != "" || got != "03011900" {
		t.Errorf("coerceDigits = %v, %q", got, kind)
	}
	if got, kind := coerceDigits("n/a"); got != nil || kind != "" {
		t.Errorf("coerceDigits(no digits) = %v, %q, want null", got, kind)
	}
}

func TestCoerceDutyPercent(t *testing.T) {
	tests := []struct {
		raw      any
		want     string
		wantKind ErrorKind
	}{
		{raw: "12.500 %", want: "12.5"},
		{raw: "0.000%", want: "0"},
		{raw: " 5 . 000 % ", want: "5"},
		{raw: "12.5%", wantKind: ErrorInvalid},
		{raw: "12.500", wantKind: ErrorInvalid},
		{raw: 12.5, wantKind: ErrorInvalid},
	}

	for _, tt := range tests {
		got, kind := coerceDutyPercent(tt.raw)
		if kind != tt.wantKind {
			t.Errorf("coerceDutyPercent(%v) kind = %q, want %q", tt.raw, kind, tt.wantKind)
			continue
		}
		if kind == "" && got.(decimal.Decimal).String() != tt.want {
			t.Errorf("coerceDutyPercent(%v) = %v, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestCoerceFutureDate(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	defer func() { now = orig }()

	if _, kind := coerceFutureDate("2025-01-01"); kind != "" {
		t.Errorf("future date kind = %q, want none", kind)
	}
	if _, kind := coerceFutureDate("2023-01-01"); kind != ErrorInvalid {
		t.Errorf("past date kind = %q, want invalid", kind)
	}
	if _, kind := coerceFutureDate("not a date"); kind != ErrorInvalid {
		t.Errorf("bad date kind = %q, want invalid", kind)
	}
}

func TestRegisterCoercer_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("RegisterCoercer did not panic on duplicate name")
		}
	}()
	RegisterCoercer("digits", coerceDigits)
}
