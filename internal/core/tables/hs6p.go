package tables

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// CodeEntry is a commodity code at its declared hierarchy level.
type CodeEntry struct {
	Code        string
	Description string
}

// ReduceCodes truncates every code to its hierarchy position and keeps the
// first row per truncated code. Later duplicates are counted as excluded.
func ReduceCodes(rows []schema.ValidatedRow) ([]CodeEntry, int) {
	entries := newOrderedMap[string, CodeEntry]()
	excluded := 0

	for _, row := range rows {
		code := row.String("hs6p_code")
		pos, _ := row.Int("position")
		pos = max(0, min(pos, len(code)))
		key := code[:pos]

		if !entries.SetIfAbsent(key, CodeEntry{Code: key, Description: row.String("description")}) {
			excluded++
		}
	}
	return entries.Values(), excluded
}

func registerHs6p() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Type:    core.DataTypeHs6p,
			Label:   "HS6P commodity codes",
			Sources: []string{"hs6p"},
		},
		Prepare: prepareHs6p,
	})
}

func prepareHs6p(_ context.Context, in core.PrepareInput) (*core.Plan, error) {
	entries, excluded := ReduceCodes(in.Sources[0])

	size := in.BatchSize
	if size <= 0 {
		size = len(entries)
	}
	units := 0
	if size > 0 {
		units = (len(entries) + size - 1) / size
	}
	ts := core.ToPgTimestamptz(in.Now)

	return &core.Plan{
		Target:   "hs6p_code",
		Units:    units,
		Excluded: excluded,
		Reset: func(ctx context.Context, q database.Querier) error {
			if err := q.DeleteHs6pCodes(ctx); err != nil {
				return fmt.Errorf("delete hs6p codes: %w", err)
			}
			return nil
		},
		Apply: func(ctx context.Context, q database.Querier, unit int) (core.UnitResult, error) {
			chunk := entries[unit*size : min((unit+1)*size, len(entries))]
			params := make([]database.InsertHs6pCodesParams, 0, len(chunk))
			for _, e := range chunk {
				params = append(params, database.InsertHs6pCodesParams{
					Hs6pCode:    e.Code,
					Description: core.ToPgText(e.Description),
					Timestamp:   ts,
				})
			}
			res, err := copyUnit(ctx, params, 0, q.InsertHs6pCodes)
			if err != nil {
				return res, fmt.Errorf("insert hs6p codes: %w", err)
			}
			return res, nil
		},
	}, nil
}
