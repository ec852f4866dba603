package tables

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/core/coretest"
	"github.com/JonMunkholm/refdata/internal/schema"
)

func dutyEntry(code, origin string) schema.ValidatedRow {
	return schema.ValidatedRow{
		"hs6p_code":         code,
		"start_date":        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"origin_country":    "origin",
		"measure_type":      "Third country duty",
		"legal_base":        "R2658/87",
		"customs_duty":      decimal.RequireFromString("12.5"),
		"origin_code":       origin,
		"measure_type_code": "103",
	}
}

func origins(records []DutyRateRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.OriginCountry)
	}
	return out
}

// =============================================================================
// Expand
// =============================================================================

func TestDutyExpander_Expand(t *testing.T) {
	groups := map[string][]string{
		"1011": {"AT", "FI", "DE"},
		"2005": {"FR", "FR", "IT"},
		"3000": {"AT", "DE", "AT"},
	}
	exclusions := map[string][]string{
		"030119": {"DE"},
		"030211": {"AT"},
	}
	countries := []string{"AT", "DE", "FI", "FR", "IT"}

	tests := []struct {
		name         string
		code         string
		origin       string
		wantOrigins  []string
		wantExcluded int
	}{
		{"group minus exclusion", "030119", "1011", []string{"AT", "FI"}, 1},
		{"group without exclusion", "020000", "1011", []string{"AT", "FI", "DE"}, 0},
		{"group duplicates collapse", "020000", "2005", []string{"FR", "IT"}, 0},
		{"duplicate excluded member counted each time", "030211", "3000", []string{"DE"}, 2},
		{"unknown group", "020000", "9999", []string{}, 0},
		{"literal country", "030119", "AT", []string{"AT"}, 0},
		{"literal excluded", "030119", "DE", []string{}, 1},
		{"literal unknown", "030119", "XX", []string{}, 1},
	}

	exp := NewDutyExpander(groups, exclusions, countries)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			records, excluded := exp.Expand(dutyEntry(tt.code, tt.origin))
			assert.Equal(t, tt.wantOrigins, origins(records))
			assert.Equal(t, tt.wantExcluded, excluded)
		})
	}
}

func TestDutyExpander_RecordFields(t *testing.T) {
	ts := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	exp := NewDutyExpander(nil, nil, []string{"AT"})
	exp.Timestamp = ts

	entry := dutyEntry("030119", "AT")
	end := time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)
	entry["end_date"] = end

	records, _ := exp.Expand(entry)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "030119", r.Code)
	assert.True(t, r.DutyRate.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, r.HasEndDate)
	assert.Equal(t, end, r.EndDate)
	assert.Equal(t, "103", r.MeasureTypeCode)
	assert.Equal(t, ts, r.Timestamp)
}

// =============================================================================
// Exclusions and groups
// =============================================================================

func TestBuildExclusions(t *testing.T) {
	rows := []schema.ValidatedRow{
		{"hs6p_code": "030119", "measure_type": "Third country duty", "measure_type_code": "103", "excluded_country": "DE"},
		{"hs6p_code": "030119", "measure_type": "Renamed", "measure_type_code": "103", "excluded_country": "FR"},
		{"hs6p_code": "030211", "measure_type": "Tariff preference", "measure_type_code": "142", "excluded_country": "AT"},
	}

	ex := BuildExclusions(rows)
	assert.Equal(t, map[string][]string{
		"030119": {"DE", "FR"},
		"030211": {"AT"},
	}, ex.ByCode)
	assert.Equal(t, []MeasureType{
		{Code: "103", Name: "Third country duty"},
		{Code: "142", Name: "Tariff preference"},
	}, ex.MeasureTypes)
}

func TestBuildCountryGroups(t *testing.T) {
	rows := []schema.ValidatedRow{
		{"country_group_code": "1011", "country_code": "AT"},
		{"country_group_code": "2005", "country_code": "FR"},
		{"country_group_code": "1011", "country_code": "FI"},
	}

	assert.Equal(t, map[string][]string{
		"1011": {"AT", "FI"},
		"2005": {"FR"},
	}, BuildCountryGroups(rows))
}

// =============================================================================
// Plan
// =============================================================================

func TestPrepareCustomDutyRates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	plan, err := prepareCustomDutyRates(ctx, core.PrepareInput{
		Sources: [][]schema.ValidatedRow{
			{dutyEntry("030119", "1011"), dutyEntry("030119", "XX")},
			{
				{"country_group_code": "1011", "country_code": "AT"},
				{"country_group_code": "1011", "country_code": "DE"},
			},
			{{"hs6p_code": "030119", "measure_type": "Third country duty", "measure_type_code": "103", "excluded_country": "DE"}},
		},
		Refs: schema.References{schema.RefCountries: {"AT", "DE"}},
		Now:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Units)
	assert.Equal(t, "country_customs_duty_rate", plan.Target)

	store := coretest.NewMemStore()
	require.NoError(t, plan.Setup(ctx, store.Queries()))
	assert.Equal(t, map[string]string{"103": "Third country duty"}, store.Committed().MeasureTypes)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	q := tx.Queries()
	require.NoError(t, plan.Reset(ctx, q))

	first, err := plan.Apply(ctx, q, 0)
	require.NoError(t, err)
	assert.Equal(t, core.UnitResult{Records: 1, Inserted: 1, Excluded: 1}, first)

	second, err := plan.Apply(ctx, q, 1)
	require.NoError(t, err)
	assert.Equal(t, core.UnitResult{Records: 0, Inserted: 0, Excluded: 1}, second)

	require.NoError(t, tx.Commit(ctx))
	rates := store.Committed().DutyRates
	require.Len(t, rates, 1)
	assert.Equal(t, "AT", rates[0].OriginCode)
	assert.True(t, rates[0].Timestamp.Time.Equal(now))
	assert.True(t, rates[0].StartDate.Valid)
	assert.False(t, rates[0].EndDate.Valid)
}

func TestIsGroupCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1011", true},
		{"EU1", true},
		{"AT", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isGroupCode(tt.in); got != tt.want {
			t.Errorf("isGroupCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
