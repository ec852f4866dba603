package database

import (
	"context"
)

type Querier interface {
	ClearVatItems(ctx context.Context) error
	ClearVatRates(ctx context.Context) error
	CreateFileUploadJob(ctx context.Context, arg CreateFileUploadJobParams) (int64, error)
	DeleteCustomsDutyRates(ctx context.Context) error
	DeleteHs6pCodes(ctx context.Context) error
	DeletePendingFileUploadJob(ctx context.Context, arg DeletePendingFileUploadJobParams) (int64, error)
	GetFileUploadJob(ctx context.Context, id int64) (FileUploadJob, error)
	InsertCustomsDutyRates(ctx context.Context, arg []InsertCustomsDutyRatesParams) (int64, error)
	InsertHs6pCodes(ctx context.Context, arg []InsertHs6pCodesParams) (int64, error)
	InsertMeasureType(ctx context.Context, arg InsertMeasureTypeParams) (int64, error)
	InsertVatItems(ctx context.Context, arg []InsertVatItemsParams) (int64, error)
	InsertVatRate(ctx context.Context, arg InsertVatRateParams) (int64, error)
	ListCountryCodes(ctx context.Context) ([]string, error)
	ListHs6pCodes(ctx context.Context) ([]string, error)
	UpdateFileUploadJob(ctx context.Context, arg UpdateFileUploadJobParams) (int64, error)
}

var _ Querier = (*Queries)(nil)
