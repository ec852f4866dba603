package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/core/tables"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// feedFilename is recorded on jobs started from the VAT feed.
const feedFilename = "VAT web service"

// handleUpload accepts a multipart form with data_type and file. The body is
// the upload response for both outcomes; the status code tells them apart.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondUpload(w, r, core.FailedUpload(errFileTooLarge), errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	dataType := core.DataType(r.FormValue("data_type"))

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondUpload(w, r, core.FailedUpload(core.ErrNoFile), core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondUpload(w, r, core.FailedUpload(errFileTooLarge), errFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	resp, err := s.service.Upload(r.Context(), core.UploadRequest{
		DataType: dataType,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		s.respondUpload(w, r, resp, err, uploadStatus(err))
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

var errFileTooLarge = errors.New("file too large")

// respondUpload logs a failed upload and writes its response body.
func (s *Server) respondUpload(w http.ResponseWriter, r *http.Request, resp core.UploadResponse, err error, status int) {
	s.logUploadError(r, err, resp.ErrorCode, status)
	writeJSON(w, status, resp)
}

// handleVatFeed accepts the VAT web-service feed as a JSON array and
// persists it like an uploaded VAT sheet.
func (s *Server) handleVatFeed(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	var items []tables.VatFeedItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("file contains invalid data: %w", err), http.StatusBadRequest)
		return
	}

	rows := tables.FormatVatFeed(items)
	resp, err := s.service.SubmitRows(r.Context(), core.DataTypeVatRate, feedFilename,
		[][]schema.ValidatedRow{rows}, core.OriginWebService)
	if err != nil {
		s.respondUpload(w, r, resp, err, uploadStatus(err))
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}
