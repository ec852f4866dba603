// Package tables registers the uploadable reference datasets with the core
// registry. Import it for its side effects.
//
// Each dataset file reduces its validated rows to normalized records and
// returns a core.Plan that full-refreshes the target table one unit at a
// time.
package tables

import (
	"context"

	"github.com/JonMunkholm/refdata/internal/core"
)

func init() {
	registerVatRates()
	registerHs6p()
	registerCustomDutyRates()
}

// orderedMap is a map that remembers key insertion order.
type orderedMap[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{m: make(map[K]V)}
}

func (o *orderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := o.m[k]
	return v, ok
}

// Set stores v under k, keeping the original position of an existing key.
func (o *orderedMap[K, V]) Set(k K, v V) {
	if _, ok := o.m[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.m[k] = v
}

// SetIfAbsent stores v only when k is new and reports whether it did.
func (o *orderedMap[K, V]) SetIfAbsent(k K, v V) bool {
	if _, ok := o.m[k]; ok {
		return false
	}
	o.Set(k, v)
	return true
}

func (o *orderedMap[K, V]) Len() int {
	return len(o.keys)
}

// Values returns the values in insertion order.
func (o *orderedMap[K, V]) Values() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.m[k])
	}
	return out
}

// copyUnit inserts one batch through a CopyFrom query and reports it as a
// plan unit.
func copyUnit[P any](ctx context.Context, rows []P, excluded int, insert func(context.Context, []P) (int64, error)) (core.UnitResult, error) {
	res := core.UnitResult{Records: len(rows), Excluded: excluded}
	if len(rows) == 0 {
		return res, nil
	}
	n, err := insert(ctx, rows)
	if err != nil {
		return res, err
	}
	res.Inserted = n
	return res, nil
}
