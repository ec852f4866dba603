package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// DataType identifies an uploadable reference dataset.
type DataType string

const (
	DataTypeVatRate        DataType = "country_vat_rate"
	DataTypeHs6p           DataType = "hs6p"
	DataTypeCustomDutyRate DataType = "custom_duty_rate"
)

// Origin values recorded with VAT rates.
const (
	OriginUpload     = "UPLOAD"
	OriginWebService = "WEB_SERVICE"
)

// DatasetInfo describes a registered dataset.
type DatasetInfo struct {
	Type  DataType `json:"type"`
	Label string   `json:"label"`

	// Sources are the schema names of the inputs, in submission order.
	Sources []string `json:"sources"`

	// Archive is true when the sources arrive bundled in one zip file.
	Archive bool `json:"archive"`

	// Refs lists reference lists needed by Prepare beyond those the source
	// schemas already bind.
	Refs []string `json:"-"`
}

// DatasetDefinition couples a dataset with the code that turns its
// validated sources into a persistence plan.
type DatasetDefinition struct {
	Info    DatasetInfo
	Prepare func(ctx context.Context, in PrepareInput) (*Plan, error)
}

// PrepareInput is handed to DatasetDefinition.Prepare.
type PrepareInput struct {
	// Sources holds the validated rows of each source, in Info.Sources order.
	Sources   [][]schema.ValidatedRow
	Refs      schema.References
	Origin    string
	BatchSize int
	Now       time.Time
}

// Plan is a full-refresh persistence run split into units. Reset and Apply
// run inside one transaction; Setup runs before the job is created.
type Plan struct {
	Target   string
	Units    int
	Excluded int

	Setup func(ctx context.Context, q database.Querier) error
	Reset func(ctx context.Context, q database.Querier) error
	Apply func(ctx context.Context, q database.Querier, unit int) (UnitResult, error)
}

// UnitResult is the outcome of applying one unit of a Plan.
type UnitResult struct {
	Records  int
	Inserted int64
	Excluded int
}

// UploadRequest is a file submitted for a dataset.
type UploadRequest struct {
	DataType DataType
	Filename string
	Data     []byte
}

// UploadResponse is returned synchronously for every upload. On success the
// job id identifies the detached persistence run.
type UploadResponse struct {
	Status          string                `json:"status"`
	Filename        string                `json:"filename,omitempty"`
	NoOfRows        int                   `json:"noOfRows"`
	ExcludeRowCount int                   `json:"excludeRowCount"`
	ErrorList       []schema.ErrorSummary `json:"errorList,omitempty"`
	JobID           int64                 `json:"jobId,omitempty"`
	UploadID        string                `json:"uploadId,omitempty"`
	Checksum        string                `json:"checksum,omitempty"`
	ErrorMsg        string                `json:"errorMsg,omitempty"`
	ErrorCode       string                `json:"errorCode,omitempty"`

	// NoOfRowsUploaded counts valid rows minus ExcludeRowCount. Unset for
	// archive datasets.
	NoOfRowsUploaded *int `json:"noOfRowsUploaded,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FailedUpload builds the response for a rejected upload.
func FailedUpload(err error) UploadResponse {
	resp := UploadResponse{Status: StatusError, ErrorMsg: "File upload failed."}
	if err == nil {
		return resp
	}
	msg := MapError(err)
	resp.ErrorCode = msg.Code
	if IsUserFacing(err) {
		resp.ErrorMsg = "File upload failed. " + msg.Message
	}
	return resp
}
