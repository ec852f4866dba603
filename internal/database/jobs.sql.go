package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createFileUploadJob = `-- name: CreateFileUploadJob :one
INSERT INTO file_upload_job (type, status, progress, response, last_updated)
VALUES ($1, $2, $3, $4, now())
RETURNING id
`

type CreateFileUploadJobParams struct {
	Type     string         `json:"type"`
	Status   string         `json:"status"`
	Progress pgtype.Numeric `json:"progress"`
	Response []byte         `json:"response"`
}

func (q *Queries) CreateFileUploadJob(ctx context.Context, arg CreateFileUploadJobParams) (int64, error) {
	row := q.db.QueryRow(ctx, createFileUploadJob,
		arg.Type,
		arg.Status,
		arg.Progress,
		arg.Response,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateFileUploadJob = `-- name: UpdateFileUploadJob :execrows
UPDATE file_upload_job
SET status = $2,
    progress = $3,
    response = $4,
    last_updated = $5
WHERE id = $1 AND status = 'pending'
`

type UpdateFileUploadJobParams struct {
	ID          int64              `json:"id"`
	Status      string             `json:"status"`
	Progress    pgtype.Numeric     `json:"progress"`
	Response    []byte             `json:"response"`
	LastUpdated pgtype.Timestamptz `json:"last_updated"`
}

func (q *Queries) UpdateFileUploadJob(ctx context.Context, arg UpdateFileUploadJobParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateFileUploadJob,
		arg.ID,
		arg.Status,
		arg.Progress,
		arg.Response,
		arg.LastUpdated,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deletePendingFileUploadJob = `-- name: DeletePendingFileUploadJob :execrows
DELETE FROM file_upload_job
WHERE id = $1 AND type = $2 AND status = 'pending'
`

type DeletePendingFileUploadJobParams struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

func (q *Queries) DeletePendingFileUploadJob(ctx context.Context, arg DeletePendingFileUploadJobParams) (int64, error) {
	result, err := q.db.Exec(ctx, deletePendingFileUploadJob, arg.ID, arg.Type)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getFileUploadJob = `-- name: GetFileUploadJob :one
SELECT id, type, status, progress, response, last_updated
FROM file_upload_job
WHERE id = $1
`

func (q *Queries) GetFileUploadJob(ctx context.Context, id int64) (FileUploadJob, error) {
	row := q.db.QueryRow(ctx, getFileUploadJob, id)
	var i FileUploadJob
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Status,
		&i.Progress,
		&i.Response,
		&i.LastUpdated,
	)
	return i, err
}
