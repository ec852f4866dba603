package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listCountryCodes = `-- name: ListCountryCodes :many
SELECT iso_alpha_2 FROM country ORDER BY iso_alpha_2
`

func (q *Queries) ListCountryCodes(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listCountryCodes)
}

const listHs6pCodes = `-- name: ListHs6pCodes :many
SELECT hs6p_code FROM hs6p_code ORDER BY hs6p_code
`

func (q *Queries) ListHs6pCodes(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listHs6pCodes)
}

func (q *Queries) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertMeasureType = `-- name: InsertMeasureType :execrows
INSERT INTO measure_type (measure_type_code, measure_type)
VALUES ($1, $2)
ON CONFLICT (measure_type_code) DO NOTHING
`

type InsertMeasureTypeParams struct {
	MeasureTypeCode string `json:"measure_type_code"`
	MeasureType     string `json:"measure_type"`
}

func (q *Queries) InsertMeasureType(ctx context.Context, arg InsertMeasureTypeParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertMeasureType, arg.MeasureTypeCode, arg.MeasureType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCustomsDutyRates = `-- name: DeleteCustomsDutyRates :exec
DELETE FROM country_customs_duty_rate
`

func (q *Queries) DeleteCustomsDutyRates(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteCustomsDutyRates)
	return err
}

type InsertCustomsDutyRatesParams struct {
	Hs6pCode        string             `json:"hs6p_code"`
	CustomsDuty     pgtype.Numeric     `json:"customs_duty"`
	OriginCode      string             `json:"origin_code"`
	StartDate       pgtype.Date        `json:"start_date"`
	EndDate         pgtype.Date        `json:"end_date"`
	MeasureType     string             `json:"measure_type"`
	LegalBase       string             `json:"legal_base"`
	MeasureTypeCode string             `json:"measure_type_code"`
	Timestamp       pgtype.Timestamptz `json:"timestamp"`
}

const deleteHs6pCodes = `-- name: DeleteHs6pCodes :exec
DELETE FROM hs6p_code
`

func (q *Queries) DeleteHs6pCodes(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteHs6pCodes)
	return err
}

type InsertHs6pCodesParams struct {
	Hs6pCode    string             `json:"hs6p_code"`
	Description pgtype.Text        `json:"description"`
	Timestamp   pgtype.Timestamptz `json:"timestamp"`
}

const clearVatItems = `-- name: ClearVatItems :exec
DELETE FROM country_vat_item i
USING country_vat_rate r
WHERE i.country_vat_rate_id = r.id AND r.is_data_reserved = false
`

func (q *Queries) ClearVatItems(ctx context.Context) error {
	_, err := q.db.Exec(ctx, clearVatItems)
	return err
}

const clearVatRates = `-- name: ClearVatRates :exec
DELETE FROM country_vat_rate WHERE is_data_reserved = false
`

func (q *Queries) ClearVatRates(ctx context.Context) error {
	_, err := q.db.Exec(ctx, clearVatRates)
	return err
}

const insertVatRate = `-- name: InsertVatRate :one
INSERT INTO country_vat_rate (country, rate_type, rate, source)
VALUES ($1, $2, $3, $4)
RETURNING id
`

type InsertVatRateParams struct {
	Country  string         `json:"country"`
	RateType string         `json:"rate_type"`
	Rate     pgtype.Numeric `json:"rate"`
	Source   string         `json:"source"`
}

func (q *Queries) InsertVatRate(ctx context.Context, arg InsertVatRateParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertVatRate,
		arg.Country,
		arg.RateType,
		arg.Rate,
		arg.Source,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type InsertVatItemsParams struct {
	CountryVatRateID int64       `json:"country_vat_rate_id"`
	Hs6pCode         string      `json:"hs6p_code"`
	Description      pgtype.Text `json:"description"`
	Category         string      `json:"category"`
	Comments         string      `json:"comments"`
}
