package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refdata/internal/config"
	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/schema"
)

// fakeService records calls and returns canned results.
type fakeService struct {
	uploads   []core.UploadRequest
	submitted [][]schema.ValidatedRow
	origin    string
	cancelled []cancelRequest

	uploadErr error
	cancelN   int64
	jobs      map[int64]core.UploadJob
}

func (f *fakeService) Upload(ctx context.Context, req core.UploadRequest) (core.UploadResponse, error) {
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		resp := core.FailedUpload(f.uploadErr)
		resp.Filename = req.Filename
		return resp, f.uploadErr
	}
	return core.UploadResponse{Status: core.StatusSuccess, Filename: req.Filename, NoOfRows: 2, JobID: 42}, nil
}

func (f *fakeService) SubmitRows(ctx context.Context, dataType core.DataType, filename string, sources [][]schema.ValidatedRow, origin string) (core.UploadResponse, error) {
	f.submitted = sources
	f.origin = origin
	return core.UploadResponse{Status: core.StatusSuccess, Filename: filename, NoOfRows: len(sources[0]), JobID: 43}, nil
}

func (f *fakeService) Cancel(ctx context.Context, id int64, typ core.DataType) (int64, error) {
	f.cancelled = append(f.cancelled, cancelRequest{ID: &id, Type: typ})
	return f.cancelN, nil
}

func (f *fakeService) GetJob(ctx context.Context, id int64) (core.UploadJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return core.UploadJob{}, fmt.Errorf("%w: %d", core.ErrJobNotFound, id)
	}
	return job, nil
}

func (f *fakeService) DataTypes() []core.DatasetInfo {
	return []core.DatasetInfo{{Type: core.DataTypeHs6p, Label: "HS6P commodity codes", Sources: []string{"hs6p"}}}
}

func (f *fakeService) ActiveTasks() int { return 1 }

func newTestServer(svc *fakeService, mutate ...func(*config.Config)) *Server {
	cfg := &config.Config{
		Upload: config.UploadConfig{MaxFileSize: 1 << 10},
	}
	for _, m := range mutate {
		m(cfg)
	}
	return NewServer(svc, cfg)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Upload
// =============================================================================

func TestHandleUpload(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	body, ct := multipartBody(t, map[string]string{"data_type": "hs6p"}, "codes.csv", []byte("a,b\n1,2\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)

	rec := serve(s, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp core.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.JobID)
	assert.Equal(t, "codes.csv", resp.Filename)

	require.Len(t, svc.uploads, 1)
	assert.Equal(t, core.DataTypeHs6p, svc.uploads[0].DataType)
	assert.Equal(t, "a,b\n1,2\n", string(svc.uploads[0].Data))
}

func TestHandleUpload_Failures(t *testing.T) {
	tests := []struct {
		name       string
		uploadErr  error
		filename   string
		content    []byte
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no file",
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name:       "too large",
			filename:   "big.csv",
			content:    bytes.Repeat([]byte("x"), 2<<10),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "FILE001",
		},
		{
			name:       "multiple sheets",
			uploadErr:  fmt.Errorf("File Upload failed as it contains multiple sheets"),
			filename:   "rates.xlsx",
			content:    []byte("PK"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE002",
		},
		{
			name:       "busy",
			uploadErr:  core.ErrTooManyUploads,
			filename:   "codes.csv",
			content:    []byte("a\n1\n"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPL001",
		},
		{
			name:       "store down",
			uploadErr:  fmt.Errorf("create upload job: connection refused"),
			filename:   "codes.csv",
			content:    []byte("a\n1\n"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "DB004",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeService{uploadErr: tt.uploadErr})

			body, ct := multipartBody(t, map[string]string{"data_type": "hs6p"}, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", ct)

			rec := serve(s, req)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp core.UploadResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, core.StatusError, resp.Status)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.True(t, strings.HasPrefix(resp.ErrorMsg, "File upload failed."))
		})
	}
}

// =============================================================================
// VAT feed
// =============================================================================

func TestHandleVatFeed(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(svc)

	feed := `[{"memberState":"AT","type":"STANDARD","rate":{"type":"DEFAULT","value":20}},
	          {"memberState":"AT","type":"PARKING","rate":{"type":"DEFAULT","value":13}}]`
	req := httptest.NewRequest(http.MethodPost, "/api/vat-rates/feed", strings.NewReader(feed))

	rec := serve(s, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, svc.submitted, 1)
	assert.Len(t, svc.submitted[0], 1)
	assert.Equal(t, core.OriginWebService, svc.origin)
}

func TestHandleVatFeed_InvalidJSON(t *testing.T) {
	s := newTestServer(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/api/vat-rates/feed", strings.NewReader(`{"not":"a list"`))

	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VAL001", resp.Code)
}

// =============================================================================
// Jobs
// =============================================================================

func TestHandleCancelJob(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		cancelN    int64
		wantStatus int
		wantBody   string
		wantType   core.DataType
	}{
		{"pending job", `{"id":3}`, 1, http.StatusOK, `{"rowCount":1}`, ""},
		{"finished job", `{"id":3}`, 0, http.StatusOK, `{"rowCount":0}`, ""},
		{"explicit type", `{"id":3,"type":"hs6p"}`, 1, http.StatusOK, `{"rowCount":1}`, core.DataTypeHs6p},
		{"missing id", `{}`, 0, http.StatusBadRequest, "", ""},
		{"string id", `{"id":"3"}`, 0, http.StatusBadRequest, "", ""},
		{"unknown type", `{"id":3,"type":"tariffs"}`, 0, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{cancelN: tt.cancelN}
			s := newTestServer(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/file-upload-jobs/cancel", strings.NewReader(tt.body))
			rec := serve(s, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
				require.Len(t, svc.cancelled, 1)
				assert.Equal(t, int64(3), *svc.cancelled[0].ID)
				assert.Equal(t, tt.wantType, svc.cancelled[0].Type)
			} else {
				assert.Empty(t, svc.cancelled)
			}
		})
	}
}

func TestHandleGetJob(t *testing.T) {
	svc := &fakeService{jobs: map[int64]core.UploadJob{
		7: {ID: 7, Type: core.DataTypeCustomDutyRate, Status: core.JobStatusPending, Progress: 35},
	}}
	s := newTestServer(svc)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/file-upload-jobs/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var job core.UploadJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, 35.0, job.Progress)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/file-upload-jobs/8", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB001")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/file-upload-jobs/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Misc
// =============================================================================

func TestHandleListDataTypes(t *testing.T) {
	s := newTestServer(&fakeService{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data-types", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"hs6p"`)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeService{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","active_tasks":1}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(&fakeService{}, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data-types", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/data-types", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// Health checks stay open.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
