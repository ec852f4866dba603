package core

// job.go tracks upload jobs through the file_upload_job table.
//
// A job is created pending with zero progress. Checkpoints rewrite its
// progress and running totals and only touch pending rows, so a checkpoint
// that affects no row means the job was cancelled. The final checkpoint sets
// progress to 100 and marks the job completed. Cancelling deletes the row
// while it is still pending.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
)

// ErrJobNotFound is returned when no job row exists for an id.
var ErrJobNotFound = errors.New("upload job not found")

// ErrJobCancelled ends a persistence run whose job row was removed.
var ErrJobCancelled = errors.New("file upload job got cancelled")

// JobResponse is the summary stored with a job.
type JobResponse struct {
	Filename         string `json:"filename"`
	NoOfRows         int    `json:"noOfRows"`
	SkippedRows      int    `json:"skippedRows"`
	NoOfRowsUploaded int    `json:"noOfRowsUploaded"`
	ExcludeRowCount  int    `json:"excludeRowCount"`
}

// UploadJob is a job row as reported to callers.
type UploadJob struct {
	ID          int64       `json:"id"`
	Type        DataType    `json:"type"`
	Status      string      `json:"status"`
	Progress    float64     `json:"progress"`
	Response    JobResponse `json:"response"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// Totals are the running counts of a persistence run.
type Totals struct {
	Rows     int
	Uploaded int
	Excluded int
}

func (t *Totals) add(r UnitResult) {
	t.Rows += r.Records
	t.Uploaded += int(r.Inserted)
	t.Excluded += r.Excluded
}

// JobRef identifies the job a run reports to.
type JobRef struct {
	ID       int64
	Filename string
}

// JobTracker creates, checkpoints and cancels upload jobs.
type JobTracker struct {
	q   database.Querier
	now func() time.Time
}

// NewJobTracker returns a tracker issuing its writes through q.
func NewJobTracker(q database.Querier) *JobTracker {
	return &JobTracker{q: q, now: time.Now}
}

// Create inserts a pending job and returns its id.
func (t *JobTracker) Create(ctx context.Context, typ DataType, filename string) (int64, error) {
	resp, err := json.Marshal(JobResponse{Filename: filename})
	if err != nil {
		return 0, fmt.Errorf("encode job response: %w", err)
	}

	id, err := t.q.CreateFileUploadJob(ctx, database.CreateFileUploadJobParams{
		Type:     string(typ),
		Status:   JobStatusPending,
		Progress: ToPgNumeric(decimal.Zero),
		Response: resp,
	})
	if err != nil {
		return 0, fmt.Errorf("create upload job: %w", err)
	}
	return id, nil
}

// Checkpoint records progress and totals. It reports false when the job row
// no longer exists as pending. Progress of 100 or more completes the job.
func (t *JobTracker) Checkpoint(ctx context.Context, job JobRef, progress float64, totals Totals) (bool, error) {
	status := JobStatusPending
	if progress >= 100 {
		progress = 100
		status = JobStatusCompleted
	}

	resp, err := json.Marshal(JobResponse{
		Filename:         job.Filename,
		NoOfRows:         totals.Rows,
		SkippedRows:      totals.Rows - totals.Uploaded,
		NoOfRowsUploaded: totals.Uploaded,
		ExcludeRowCount:  totals.Excluded,
	})
	if err != nil {
		return false, fmt.Errorf("encode job response: %w", err)
	}

	n, err := t.q.UpdateFileUploadJob(ctx, database.UpdateFileUploadJobParams{
		ID:          job.ID,
		Status:      status,
		Progress:    ToPgNumeric(RoundProgress(progress)),
		Response:    resp,
		LastUpdated: ToPgTimestamptz(t.now()),
	})
	if err != nil {
		return false, fmt.Errorf("checkpoint job %d: %w", job.ID, err)
	}
	return n > 0, nil
}

// Cancel deletes the job if it is still pending and of type typ. It returns
// the number of rows deleted.
func (t *JobTracker) Cancel(ctx context.Context, id int64, typ DataType) (int64, error) {
	n, err := t.q.DeletePendingFileUploadJob(ctx, database.DeletePendingFileUploadJobParams{
		ID:   id,
		Type: string(typ),
	})
	if err != nil {
		return 0, fmt.Errorf("cancel job %d: %w", id, err)
	}
	return n, nil
}

// Get loads a job by id.
func (t *JobTracker) Get(ctx context.Context, id int64) (UploadJob, error) {
	row, err := t.q.GetFileUploadJob(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return UploadJob{}, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err != nil {
		return UploadJob{}, fmt.Errorf("get job %d: %w", id, err)
	}

	job := UploadJob{
		ID:     row.ID,
		Type:   DataType(row.Type),
		Status: row.Status,
	}
	job.Progress, _ = FromPgNumeric(row.Progress).Float64()
	if row.LastUpdated.Valid {
		job.LastUpdated = row.LastUpdated.Time
	}
	if len(row.Response) > 0 {
		if err := json.Unmarshal(row.Response, &job.Response); err != nil {
			return UploadJob{}, fmt.Errorf("decode job %d response: %w", id, err)
		}
	}
	return job, nil
}
