package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "duplicate key", err: errors.New("ERROR: duplicate key value violates unique constraint"), wantCode: "DB001"},
		{name: "unique constraint", err: errors.New("ERROR: unique constraint violated"), wantCode: "DB002"},
		{name: "foreign key", err: errors.New("violates foreign key constraint"), wantCode: "DB003"},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), wantCode: "DB004"},
		{name: "multiple sheets", err: errors.New("File Upload failed as it contains multiple sheets"), wantCode: "FILE002"},
		{name: "archive entries", err: errors.New("archive must contain 2 files, found 3"), wantCode: "FILE003"},
		{name: "unsupported type", err: errors.New("unsupported file type \".pdf\""), wantCode: "FILE005"},
		{name: "invalid data", err: errors.New("File contains invalid data."), wantCode: "VAL001"},
		{name: "schema config", err: errors.New("schema hs6p: Schema columns not defined"), wantCode: "VAL002"},
		{name: "unknown data type", err: errors.New("unknown data type \"foo\""), wantCode: "DS001"},
		{name: "job not found", err: fmt.Errorf("%w: 7", ErrJobNotFound), wantCode: "JOB001"},
		{name: "job cancelled", err: ErrJobCancelled, wantCode: "JOB002"},
		{name: "busy", err: ErrTooManyUploads, wantCode: "UPL001"},
		{name: "context canceled", err: context.Canceled, wantCode: "UPL002"},
		{name: "unknown error", err: errors.New("some random internal error"), wantCode: "ERR000"},
		{name: "case insensitive", err: errors.New("DUPLICATE KEY value violates"), wantCode: "DB001"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(errors.New("duplicate key value violates"))

	expected := "A record with this key already exists (Code: DB001). Remove duplicate rows from the file"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: errors.New("duplicate key"), want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailedUpload(t *testing.T) {
	resp := FailedUpload(errors.New("File Upload failed as it contains multiple sheets"))
	if resp.Status != StatusError {
		t.Errorf("Status = %q, want %q", resp.Status, StatusError)
	}
	if resp.ErrorMsg != "File upload failed. File contains multiple sheets" {
		t.Errorf("ErrorMsg = %q", resp.ErrorMsg)
	}
	if resp.ErrorCode != "FILE002" {
		t.Errorf("ErrorCode = %q, want FILE002", resp.ErrorCode)
	}

	resp = FailedUpload(errors.New("boom"))
	if resp.ErrorMsg != "File upload failed." {
		t.Errorf("ErrorMsg = %q, want generic message", resp.ErrorMsg)
	}
}
