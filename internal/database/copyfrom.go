package database

import (
	"context"
)

// iteratorForInsertCustomsDutyRates implements pgx.CopyFromSource.
type iteratorForInsertCustomsDutyRates struct {
	rows                 []InsertCustomsDutyRatesParams
	skippedFirstNextCall bool
}

func (r *iteratorForInsertCustomsDutyRates) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForInsertCustomsDutyRates) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].Hs6pCode,
		r.rows[0].CustomsDuty,
		r.rows[0].OriginCode,
		r.rows[0].StartDate,
		r.rows[0].EndDate,
		r.rows[0].MeasureType,
		r.rows[0].LegalBase,
		r.rows[0].MeasureTypeCode,
		r.rows[0].Timestamp,
	}, nil
}

func (r iteratorForInsertCustomsDutyRates) Err() error {
	return nil
}

func (q *Queries) InsertCustomsDutyRates(ctx context.Context, arg []InsertCustomsDutyRatesParams) (int64, error) {
	return q.db.CopyFrom(ctx, []string{"country_customs_duty_rate"}, []string{"hs6p_code", "customs_duty", "origin_code", "start_date", "end_date", "measure_type", "legal_base", "measure_type_code", "timestamp"}, &iteratorForInsertCustomsDutyRates{rows: arg})
}

// iteratorForInsertHs6pCodes implements pgx.CopyFromSource.
type iteratorForInsertHs6pCodes struct {
	rows                 []InsertHs6pCodesParams
	skippedFirstNextCall bool
}

func (r *iteratorForInsertHs6pCodes) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForInsertHs6pCodes) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].Hs6pCode,
		r.rows[0].Description,
		r.rows[0].Timestamp,
	}, nil
}

func (r iteratorForInsertHs6pCodes) Err() error {
	return nil
}

func (q *Queries) InsertHs6pCodes(ctx context.Context, arg []InsertHs6pCodesParams) (int64, error) {
	return q.db.CopyFrom(ctx, []string{"hs6p_code"}, []string{"hs6p_code", "description", "timestamp"}, &iteratorForInsertHs6pCodes{rows: arg})
}

// iteratorForInsertVatItems implements pgx.CopyFromSource.
type iteratorForInsertVatItems struct {
	rows                 []InsertVatItemsParams
	skippedFirstNextCall bool
}

func (r *iteratorForInsertVatItems) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForInsertVatItems) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].CountryVatRateID,
		r.rows[0].Hs6pCode,
		r.rows[0].Description,
		r.rows[0].Category,
		r.rows[0].Comments,
	}, nil
}

func (r iteratorForInsertVatItems) Err() error {
	return nil
}

func (q *Queries) InsertVatItems(ctx context.Context, arg []InsertVatItemsParams) (int64, error) {
	return q.db.CopyFrom(ctx, []string{"country_vat_item"}, []string{"country_vat_rate_id", "hs6p_code", "description", "category", "comments"}, &iteratorForInsertVatItems{rows: arg})
}
