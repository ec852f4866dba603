package tables

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/core/coretest"
	"github.com/JonMunkholm/refdata/internal/schema"
)

func vatRow(country, rateType, rate string, extra map[string]any) schema.ValidatedRow {
	row := schema.ValidatedRow{
		"country":   country,
		"rate_type": rateType,
		"rate":      decimal.RequireFromString(rate),
	}
	for k, v := range extra {
		row[k] = v
	}
	return row
}

// =============================================================================
// ReduceVatRates
// =============================================================================

func TestReduceVatRates(t *testing.T) {
	rows := []schema.ValidatedRow{
		vatRow("AT", "STANDARD", "20", nil),
		vatRow("AT", "REDUCED", "10", map[string]any{"hs6p_code": "0401", "code_description": "Milk", "category": "FOOD"}),
		vatRow("AT", "REDUCED", "10.0", map[string]any{"hs6p_code": "0402"}),
		vatRow("AT", "REDUCED", "13", map[string]any{"cpa_code": "5510"}),
		vatRow("", "STANDARD", "19", nil),
		vatRow("AT", "STANDARD", "20", nil),
		vatRow("EL", "STANDARD", "24", nil),
	}

	groups, excluded := ReduceVatRates(rows)
	assert.Equal(t, 1, excluded)
	require.Len(t, groups, 3)

	assert.Equal(t, "AT", groups[0].Country)
	assert.Equal(t, "STANDARD", groups[0].RateType)
	assert.Empty(t, groups[0].Items)

	assert.Equal(t, "REDUCED", groups[1].RateType)
	assert.Equal(t, []VatItem{
		{Code: "0401", Description: "Milk", Category: "FOOD"},
		{Code: "0402"},
	}, groups[1].Items)

	assert.Equal(t, "EL", groups[2].Country)
}

func TestReduceVatRates_Empty(t *testing.T) {
	groups, excluded := ReduceVatRates(nil)
	assert.Empty(t, groups)
	assert.Zero(t, excluded)
}

// =============================================================================
// Plan
// =============================================================================

func TestPrepareVatRates(t *testing.T) {
	ctx := context.Background()
	rows := []schema.ValidatedRow{
		vatRow("EL", "STANDARD", "24", nil),
		vatRow("EL", "REDUCED", "6", map[string]any{"hs6p_code": "4901", "comments": "Books"}),
		vatRow("EL", "REDUCED", "6", map[string]any{"hs6p_code": "4902"}),
	}

	tests := []struct {
		name       string
		origin     string
		wantSource string
	}{
		{"upload default", "", core.OriginUpload},
		{"web service", core.OriginWebService, core.OriginWebService},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			plan, err := prepareVatRates(ctx, core.PrepareInput{
				Sources: [][]schema.ValidatedRow{rows},
				Origin:  tt.origin,
			})
			require.NoError(t, err)
			assert.Equal(t, 2, plan.Units)

			store := coretest.NewMemStore()
			tx, err := store.Begin(ctx)
			require.NoError(t, err)
			q := tx.Queries()
			require.NoError(t, plan.Reset(ctx, q))

			var total core.UnitResult
			for i := 0; i < plan.Units; i++ {
				res, err := plan.Apply(ctx, q, i)
				require.NoError(t, err)
				total.Records += res.Records
				total.Inserted += res.Inserted
			}
			require.NoError(t, tx.Commit(ctx))

			assert.Equal(t, core.UnitResult{Records: 4, Inserted: 4}, total)

			data := store.Committed()
			require.Len(t, data.VatRates, 2)
			assert.Equal(t, "GR", data.VatRates[0].Country)
			assert.Equal(t, tt.wantSource, data.VatRates[0].Source)

			require.Len(t, data.VatItems, 2)
			assert.Equal(t, int64(2), data.VatItems[0].CountryVatRateID)
			assert.Equal(t, "Books", data.VatItems[0].Comments)
			assert.False(t, data.VatItems[1].Description.Valid)
		})
	}
}

func TestPrepareVatRates_InsertError(t *testing.T) {
	ctx := context.Background()
	plan, err := prepareVatRates(ctx, core.PrepareInput{
		Sources: [][]schema.ValidatedRow{{vatRow("FR", "STANDARD", "20", nil)}},
	})
	require.NoError(t, err)

	store := coretest.NewMemStore()
	store.InsertErr = coretest.ErrInsert
	_, err = plan.Apply(ctx, store.Queries(), 0)
	assert.ErrorIs(t, err, coretest.ErrInsert)
}

// =============================================================================
// NormalizeMemberState
// =============================================================================

func TestNormalizeMemberState(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"EL", "GR"},
		{" el ", "GR"},
		{"at", "AT"},
		{"XI", "XI"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeMemberState(tt.in); got != tt.want {
			t.Errorf("NormalizeMemberState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
