package tables

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// VatItem is a goods code covered by a VAT rate.
type VatItem struct {
	Code        string
	Description string
	Category    string
	Comment     string
}

// VatRateGroup is one (country, rate type, rate) entry with its goods codes.
type VatRateGroup struct {
	Country  string
	RateType string
	Rate     decimal.Decimal
	Items    []VatItem
}

// ReduceVatRates groups VAT rows by country, rate type and rate.
//
// A row with a CN code adds an item to its group. A row with only a CPA code
// is a service rate and is excluded. A row with neither creates the group
// without items if it does not exist yet. Rows without a country are dropped
// without being counted.
func ReduceVatRates(rows []schema.ValidatedRow) ([]VatRateGroup, int) {
	groups := newOrderedMap[string, *VatRateGroup]()
	excluded := 0

	for _, row := range rows {
		country := row.String("country")
		if country == "" {
			continue
		}
		rate, _ := row.Decimal("rate")
		rateType := row.String("rate_type")
		key := country + "|" + rateType + "|" + rate.String()

		switch {
		case row.Has("hs6p_code"):
			g, ok := groups.Get(key)
			if !ok {
				g = &VatRateGroup{Country: country, RateType: rateType, Rate: rate}
				groups.Set(key, g)
			}
			g.Items = append(g.Items, VatItem{
				Code:        row.String("hs6p_code"),
				Description: row.String("code_description"),
				Category:    row.String("category"),
				Comment:     row.String("comments"),
			})
		case row.Has("cpa_code"):
			excluded++
		default:
			groups.SetIfAbsent(key, &VatRateGroup{Country: country, RateType: rateType, Rate: rate})
		}
	}

	out := make([]VatRateGroup, 0, groups.Len())
	for _, g := range groups.Values() {
		out = append(out, *g)
	}
	return out, excluded
}

func registerVatRates() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Type:    core.DataTypeVatRate,
			Label:   "Country VAT rates",
			Sources: []string{"country_vat_rate"},
		},
		Prepare: prepareVatRates,
	})
}

func prepareVatRates(_ context.Context, in core.PrepareInput) (*core.Plan, error) {
	groups, excluded := ReduceVatRates(in.Sources[0])
	source := in.Origin
	if source == "" {
		source = core.OriginUpload
	}

	return &core.Plan{
		Target:   "country_vat_rate",
		Units:    len(groups),
		Excluded: excluded,
		Reset: func(ctx context.Context, q database.Querier) error {
			if err := q.ClearVatItems(ctx); err != nil {
				return fmt.Errorf("clear vat items: %w", err)
			}
			if err := q.ClearVatRates(ctx); err != nil {
				return fmt.Errorf("clear vat rates: %w", err)
			}
			return nil
		},
		Apply: func(ctx context.Context, q database.Querier, unit int) (core.UnitResult, error) {
			g := groups[unit]
			id, err := q.InsertVatRate(ctx, database.InsertVatRateParams{
				Country:  NormalizeMemberState(g.Country),
				RateType: g.RateType,
				Rate:     core.ToPgNumeric(g.Rate),
				Source:   source,
			})
			if err != nil {
				return core.UnitResult{}, fmt.Errorf("insert vat rate %s %s: %w", g.Country, g.RateType, err)
			}

			items := make([]database.InsertVatItemsParams, 0, len(g.Items))
			for _, it := range g.Items {
				items = append(items, database.InsertVatItemsParams{
					CountryVatRateID: id,
					Hs6pCode:         it.Code,
					Description:      core.ToPgText(it.Description),
					Category:         it.Category,
					Comments:         it.Comment,
				})
			}
			res, err := copyUnit(ctx, items, 0, q.InsertVatItems)
			if err != nil {
				return res, fmt.Errorf("insert vat items: %w", err)
			}
			res.Records++
			res.Inserted++
			return res, nil
		},
	}, nil
}
