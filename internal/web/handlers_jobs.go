package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/refdata/internal/core"
)

// cancelRequest is the body of a cancel call. Type defaults to
// custom_duty_rate.
type cancelRequest struct {
	ID   *int64        `json:"id"`
	Type core.DataType `json:"type,omitempty"`
}

type cancelResponse struct {
	RowCount int64 `json:"rowCount"`
}

// handleCancelJob deletes a pending job. rowCount is 1 when the job was
// pending and 0 otherwise.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Message: "Request body must be JSON with a numeric id",
			Code:    "REQ001",
		})
		return
	}
	if req.ID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing id",
			Message: "Request body must be JSON with a numeric id",
			Code:    "REQ001",
		})
		return
	}
	if req.Type != "" {
		if _, ok := core.Get(req.Type); !ok {
			s.respondError(w, r, fmt.Errorf("%w %q", core.ErrUnknownDataType, req.Type), http.StatusBadRequest)
			return
		}
	}

	n, err := s.service.Cancel(r.Context(), *req.ID, req.Type)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{RowCount: n})
}

// handleGetJob returns the job record of {id}.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid job id",
			Message: "Job id must be an integer",
			Code:    "REQ001",
		})
		return
	}

	job, err := s.service.GetJob(r.Context(), id)
	if errors.Is(err, core.ErrJobNotFound) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleListDataTypes lists the registered datasets.
func (s *Server) handleListDataTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.DataTypes())
}
