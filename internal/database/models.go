package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type FileUploadJob struct {
	ID          int64              `json:"id"`
	Type        string             `json:"type"`
	Status      string             `json:"status"`
	Progress    pgtype.Numeric     `json:"progress"`
	Response    []byte             `json:"response"`
	LastUpdated pgtype.Timestamptz `json:"last_updated"`
}

type CountryCustomsDutyRate struct {
	ID              int64              `json:"id"`
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

type CountryVatRate struct {
	ID             int64          `json:"id"`
	Country        string         `json:"country"`
	RateType       string         `json:"rate_type"`
	Rate           pgtype.Numeric `json:"rate"`
	Source         string         `json:"source"`
	IsDataReserved bool           `json:"is_data_reserved"`
}

type CountryVatItem struct {
	ID               int64       `json:"id"`
	CountryVatRateID int64       `json:"country_vat_rate_id"`
	Hs6pCode         string      `json:"hs6p_code"`
	Description      pgtype.Text `json:"description"`
	Category         string      `json:"category"`
	Comments         string      `json:"comments"`
}

type Hs6pCode struct {
	ID          int64              `json:"id"`
	Hs6pCode    string             `json:"hs6p_code"`
	Description pgtype.Text        `json:"description"`
	Timestamp   pgtype.Timestamptz `json:"timestamp"`
}

type MeasureType struct {
	ID              int64  `json:"id"`
	MeasureTypeCode string `json:"measure_type_code"`
	MeasureType     string `json:"measure_type"`
}
