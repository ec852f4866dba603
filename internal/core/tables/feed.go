package tables

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/refdata/internal/schema"
)

// VatFeedItem is one rate entry of the VAT web-service feed.
type VatFeedItem struct {
	MemberState string `json:"memberState"`
	Type        string `json:"type"`
	Rate        struct {
		Type  string           `json:"type"`
		Value *decimal.Decimal `json:"value"`
	} `json:"rate"`
	Category struct {
		Identifier string `json:"identifier"`
	} `json:"category"`
	CnCodes  *VatFeedCodes `json:"cnCodes,omitempty"`
	CpaCodes *VatFeedCodes `json:"cpaCodes,omitempty"`
}

// VatFeedCodes wraps the code list of a feed item.
type VatFeedCodes struct {
	Code []VatFeedCode `json:"code"`
}

// VatFeedCode is a CN or CPA code with its description.
type VatFeedCode struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

const feedRateDefault = "DEFAULT"

// FormatVatFeed converts feed items to VAT rows ready for ReduceVatRates.
//
// Items without a member state, with a rate type other than STANDARD or
// REDUCED, without a non-negative value or with a non-default rate are
// skipped. An item listing CN codes yields one row per CN code, one listing
// CPA codes one row per CPA code, and any other item a single rate row.
func FormatVatFeed(items []VatFeedItem) []schema.ValidatedRow {
	var rows []schema.ValidatedRow
	for _, item := range items {
		item := item
		if item.MemberState == "" {
			continue
		}
		if item.Type != "STANDARD" && item.Type != "REDUCED" {
			continue
		}
		if item.Rate.Value == nil || item.Rate.Value.IsNegative() {
			continue
		}
		if item.Rate.Type != feedRateDefault {
			continue
		}

		base := func() schema.ValidatedRow {
			row := schema.ValidatedRow{
				"country":   item.MemberState,
				"rate_type": item.Type,
				"rate":      *item.Rate.Value,
			}
			if item.Category.Identifier != "" {
				row["category"] = item.Category.Identifier
			}
			return row
		}

		switch {
		case item.CnCodes != nil:
			for _, c := range item.CnCodes.Code {
				row := base()
				row["hs6p_code"] = digitsOf(c.Value)
				if c.Description != "" {
					row["comments"] = c.Description
				}
				rows = append(rows, row)
			}
		case item.CpaCodes != nil:
			for _, c := range item.CpaCodes.Code {
				row := base()
				row["cpa_code"] = digitsOf(c.Value)
				if c.Description != "" {
					row["comments"] = c.Description
				}
				rows = append(rows, row)
			}
		default:
			rows = append(rows, base())
		}
	}
	return rows
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
