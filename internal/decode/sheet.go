// Package decode turns uploaded files into header-keyed rows.
//
// A sheet is either a CSV file or an xlsx workbook with exactly one
// worksheet. The first row holds the column labels, which are kept verbatim
// so that labels with leading spaces still match their schema. Every other
// non-empty row becomes a schema.RawRow keyed by label; empty cells are left
// out of the row. Zip archives bundle several sheets for one upload.
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/refdata/internal/schema"
)

var (
	// ErrMultipleSheets is returned for a workbook with more than one worksheet.
	ErrMultipleSheets = errors.New("File Upload failed as it contains multiple sheets")

	// ErrUnsupportedFormat is returned for an extension other than csv, xlsx or zip.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrEmptyFile is returned when a sheet has no header row.
	ErrEmptyFile = errors.New("empty file: no header row")
)

// Options controls decoding.
type Options struct {
	// Encoding is the character set of CSV input. Empty means UTF-8.
	Encoding string

	// MaxEntrySize caps the uncompressed size of one archive entry. Zero
	// means no limit.
	MaxEntrySize int64
}

// Format is the kind of an uploaded file.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatZip
)

// FormatOf picks the format from a file name.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".zip":
		return FormatZip
	default:
		return FormatUnknown
	}
}

// Sheet decodes a single CSV or xlsx file.
func Sheet(name string, data []byte, opts Options) ([]schema.RawRow, error) {
	switch FormatOf(name) {
	case FormatCSV:
		return decodeCSV(data, opts.Encoding)
	case FormatXLSX:
		return decodeXLSX(data)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// rowBuilder collects cells of one row under their header labels.
type rowBuilder struct {
	headers []string
}

func (b rowBuilder) label(col int) (string, bool) {
	if col < 0 || col >= len(b.headers) {
		return "", false
	}
	h := b.headers[col]
	return h, strings.TrimSpace(h) != ""
}
