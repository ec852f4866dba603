package tables

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// MeasureType is a customs measure code and its display name.
type MeasureType struct {
	Code string
	Name string
}

// Exclusions holds the countries excluded per goods code and the measure
// types named by the exclusion sheet.
type Exclusions struct {
	ByCode       map[string][]string
	MeasureTypes []MeasureType
}

// BuildExclusions indexes exclusion rows by goods code. Measure types are
// collected in order of first appearance; the first name per code wins.
func BuildExclusions(rows []schema.ValidatedRow) Exclusions {
	ex := Exclusions{ByCode: make(map[string][]string)}
	types := newOrderedMap[string, MeasureType]()

	for _, row := range rows {
		code := row.String("hs6p_code")
		ex.ByCode[code] = append(ex.ByCode[code], row.String("excluded_country"))

		mtc := row.String("measure_type_code")
		types.SetIfAbsent(mtc, MeasureType{Code: mtc, Name: row.String("measure_type")})
	}
	ex.MeasureTypes = types.Values()
	return ex
}

// BuildCountryGroups maps each country group code to its member countries in
// sheet order.
func BuildCountryGroups(rows []schema.ValidatedRow) map[string][]string {
	groups := make(map[string][]string)
	for _, row := range rows {
		g := row.String("country_group_code")
		groups[g] = append(groups[g], row.String("country_code"))
	}
	return groups
}

// DutyRateRecord is one persisted customs duty rate for a single origin
// country.
type DutyRateRecord struct {
	Code            string
	DutyRate        decimal.Decimal
	OriginCountry   string
	StartDate       time.Time
	EndDate         time.Time
	HasEndDate      bool
	MeasureType     string
	LegalBase       string
	MeasureTypeCode string
	Timestamp       time.Time
}

// DutyExpander fans duty entries out to per-country records.
type DutyExpander struct {
	groups     map[string][]string
	exclusions map[string][]string
	countries  map[string]struct{}

	// Timestamp is stamped on every record.
	Timestamp time.Time
}

// NewDutyExpander builds an expander over the group memberships, the
// exclusions per goods code and the master country list.
func NewDutyExpander(groups, exclusions map[string][]string, countries []string) *DutyExpander {
	set := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		set[c] = struct{}{}
	}
	return &DutyExpander{
		groups:     groups,
		exclusions: exclusions,
		countries:  set,
		Timestamp:  time.Now(),
	}
}

// Expand returns the records of one duty entry and how many origin
// countries were excluded.
//
// An origin code containing a digit names a country group: every member not
// excluded for the goods code yields one record, duplicates collapsing, and
// each excluded member counts once. Any other origin is a country code that
// yields a record only when it is not excluded and is a known country.
func (e *DutyExpander) Expand(entry schema.ValidatedRow) ([]DutyRateRecord, int) {
	code := entry.String("hs6p_code")
	origin := entry.String("origin_code")
	excludedList := e.exclusions[code]

	if isGroupCode(origin) {
		members := e.groups[origin]
		seen := make(map[string]struct{}, len(members))
		var out []DutyRateRecord
		remaining := 0
		for _, country := range members {
			if slices.Contains(excludedList, country) {
				continue
			}
			remaining++
			if _, dup := seen[country]; dup {
				continue
			}
			seen[country] = struct{}{}
			out = append(out, e.record(entry, code, country))
		}
		return out, len(members) - remaining
	}

	if _, known := e.countries[origin]; known && !slices.Contains(excludedList, origin) {
		return []DutyRateRecord{e.record(entry, code, origin)}, 0
	}
	return nil, 1
}

func (e *DutyExpander) record(entry schema.ValidatedRow, code, country string) DutyRateRecord {
	rate, _ := entry.Decimal("customs_duty")
	start, _ := entry.Time("start_date")
	end, hasEnd := entry.Time("end_date")
	return DutyRateRecord{
		Code:            code,
		DutyRate:        rate,
		OriginCountry:   country,
		StartDate:       start,
		EndDate:         end,
		HasEndDate:      hasEnd,
		MeasureType:     entry.String("measure_type"),
		LegalBase:       entry.String("legal_base"),
		MeasureTypeCode: entry.String("measure_type_code"),
		Timestamp:       e.Timestamp,
	}
}

func isGroupCode(origin string) bool {
	return strings.IndexFunc(origin, unicode.IsDigit) >= 0
}

func registerCustomDutyRates() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Type:    core.DataTypeCustomDutyRate,
			Label:   "Customs duty rates",
			Sources: []string{"duties_import", "areas_regions", "country_exclusions"},
			Archive: true,
			Refs:    []string{schema.RefCountries},
		},
		Prepare: prepareCustomDutyRates,
	})
}

func prepareCustomDutyRates(_ context.Context, in core.PrepareInput) (*core.Plan, error) {
	duties := in.Sources[0]
	groups := BuildCountryGroups(in.Sources[1])
	exclusions := BuildExclusions(in.Sources[2])

	exp := NewDutyExpander(groups, exclusions.ByCode, in.Refs[schema.RefCountries])
	if !in.Now.IsZero() {
		exp.Timestamp = in.Now
	}

	return &core.Plan{
		Target: "country_customs_duty_rate",
		Units:  len(duties),
		Setup: func(ctx context.Context, q database.Querier) error {
			for _, mt := range exclusions.MeasureTypes {
				if _, err := q.InsertMeasureType(ctx, database.InsertMeasureTypeParams{
					MeasureTypeCode: mt.Code,
					MeasureType:     mt.Name,
				}); err != nil {
					return fmt.Errorf("insert measure type %s: %w", mt.Code, err)
				}
			}
			return nil
		},
		Reset: func(ctx context.Context, q database.Querier) error {
			if err := q.DeleteCustomsDutyRates(ctx); err != nil {
				return fmt.Errorf("delete customs duty rates: %w", err)
			}
			return nil
		},
		Apply: func(ctx context.Context, q database.Querier, unit int) (core.UnitResult, error) {
			records, excluded := exp.Expand(duties[unit])
			params := make([]database.InsertCustomsDutyRatesParams, 0, len(records))
			for _, r := range records {
				params = append(params, database.InsertCustomsDutyRatesParams{
					Hs6pCode:        r.Code,
					CustomsDuty:     core.ToPgNumeric(r.DutyRate),
					OriginCode:      r.OriginCountry,
					StartDate:       core.ToPgDate(r.StartDate, true),
					EndDate:         core.ToPgDate(r.EndDate, r.HasEndDate),
					MeasureType:     r.MeasureType,
					LegalBase:       r.LegalBase,
					MeasureTypeCode: r.MeasureTypeCode,
					Timestamp:       core.ToPgTimestamptz(r.Timestamp),
				})
			}
			res, err := copyUnit(ctx, params, excluded, q.InsertCustomsDutyRates)
			if err != nil {
				return res, fmt.Errorf("insert customs duty rates: %w", err)
			}
			return res, nil
		},
	}, nil
}
