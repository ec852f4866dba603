// Package coretest provides an in-memory core.Store for tests.
package coretest

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/database"
)

// Data is the reference data held by a MemStore.
type Data struct {
	Hs6pCodes    []database.InsertHs6pCodesParams
	DutyRates    []database.InsertCustomsDutyRatesParams
	VatRates     []database.InsertVatRateParams
	VatItems     []database.InsertVatItemsParams
	MeasureTypes map[string]string
}

func (d Data) clone() Data {
	out := Data{
		Hs6pCodes:    slices.Clone(d.Hs6pCodes),
		DutyRates:    slices.Clone(d.DutyRates),
		VatRates:     slices.Clone(d.VatRates),
		VatItems:     slices.Clone(d.VatItems),
		MeasureTypes: make(map[string]string, len(d.MeasureTypes)),
	}
	for k, v := range d.MeasureTypes {
		out.MeasureTypes[k] = v
	}
	return out
}

// MemStore implements core.Store in memory. Job rows are written directly;
// reference data written inside a transaction becomes visible on commit.
type MemStore struct {
	mu sync.Mutex

	Countries  []string
	GoodsCodes []string

	// OnUpdate runs before the n-th job update (1-based) is applied.
	OnUpdate func(n int)

	// InsertErr fails every batch insert when set.
	InsertErr error

	committed Data
	jobs      map[int64]database.FileUploadJob
	nextJob   int64
	updates   []database.UpdateFileUploadJobParams
	commits   int
	rollbacks int
}

var _ core.Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		committed: Data{MeasureTypes: make(map[string]string)},
		jobs:      make(map[int64]database.FileUploadJob),
	}
}

func (s *MemStore) Queries() database.Querier {
	return &memQueries{s: s, data: &s.committed}
}

func (s *MemStore) Begin(ctx context.Context) (core.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.committed.clone()
	return &memTx{s: s, staged: &staged}, nil
}

// Committed returns a copy of the committed reference data.
func (s *MemStore) Committed() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.clone()
}

// Job returns the job row of id.
func (s *MemStore) Job(id int64) (database.FileUploadJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// DeleteJob removes a job row regardless of its state.
func (s *MemStore) DeleteJob(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Updates returns every job update received, applied or not.
func (s *MemStore) Updates() []database.UpdateFileUploadJobParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.updates)
}

// Commits and Rollbacks count finished transactions. A rollback after
// commit is not counted.
func (s *MemStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *MemStore) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

type memTx struct {
	s      *MemStore
	staged *Data
	done   bool
}

func (t *memTx) Queries() database.Querier {
	return &memQueries{s: t.s, data: t.staged}
}

func (t *memTx) Commit(ctx context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.s.committed = *t.staged
	t.s.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.s.rollbacks++
	return nil
}

type memQueries struct {
	s    *MemStore
	data *Data
}

var _ database.Querier = (*memQueries)(nil)

func (q *memQueries) ClearVatItems(ctx context.Context) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.data.VatItems = nil
	return nil
}

func (q *memQueries) ClearVatRates(ctx context.Context) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.data.VatRates = nil
	return nil
}

func (q *memQueries) CreateFileUploadJob(ctx context.Context, arg database.CreateFileUploadJobParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.nextJob++
	q.s.jobs[q.s.nextJob] = database.FileUploadJob{
		ID:       q.s.nextJob,
		Type:     arg.Type,
		Status:   arg.Status,
		Progress: arg.Progress,
		Response: arg.Response,
	}
	return q.s.nextJob, nil
}

func (q *memQueries) DeleteCustomsDutyRates(ctx context.Context) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.data.DutyRates = nil
	return nil
}

func (q *memQueries) DeleteHs6pCodes(ctx context.Context) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.data.Hs6pCodes = nil
	return nil
}

func (q *memQueries) DeletePendingFileUploadJob(ctx context.Context, arg database.DeletePendingFileUploadJobParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	j, ok := q.s.jobs[arg.ID]
	if !ok || j.Type != arg.Type || j.Status != core.JobStatusPending {
		return 0, nil
	}
	delete(q.s.jobs, arg.ID)
	return 1, nil
}

func (q *memQueries) GetFileUploadJob(ctx context.Context, id int64) (database.FileUploadJob, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	j, ok := q.s.jobs[id]
	if !ok {
		return database.FileUploadJob{}, pgx.ErrNoRows
	}
	return j, nil
}

func (q *memQueries) InsertCustomsDutyRates(ctx context.Context, arg []database.InsertCustomsDutyRatesParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.InsertErr != nil {
		return 0, q.s.InsertErr
	}
	q.data.DutyRates = append(q.data.DutyRates, arg...)
	return int64(len(arg)), nil
}

func (q *memQueries) InsertHs6pCodes(ctx context.Context, arg []database.InsertHs6pCodesParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.InsertErr != nil {
		return 0, q.s.InsertErr
	}
	q.data.Hs6pCodes = append(q.data.Hs6pCodes, arg...)
	return int64(len(arg)), nil
}

func (q *memQueries) InsertMeasureType(ctx context.Context, arg database.InsertMeasureTypeParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, ok := q.data.MeasureTypes[arg.MeasureTypeCode]; ok {
		return 0, nil
	}
	q.data.MeasureTypes[arg.MeasureTypeCode] = arg.MeasureType
	return 1, nil
}

func (q *memQueries) InsertVatItems(ctx context.Context, arg []database.InsertVatItemsParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.InsertErr != nil {
		return 0, q.s.InsertErr
	}
	q.data.VatItems = append(q.data.VatItems, arg...)
	return int64(len(arg)), nil
}

func (q *memQueries) InsertVatRate(ctx context.Context, arg database.InsertVatRateParams) (int64, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if q.s.InsertErr != nil {
		return 0, q.s.InsertErr
	}
	q.data.VatRates = append(q.data.VatRates, arg)
	return int64(len(q.data.VatRates)), nil
}

func (q *memQueries) ListCountryCodes(ctx context.Context) ([]string, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	return slices.Clone(q.s.Countries), nil
}

func (q *memQueries) ListHs6pCodes(ctx context.Context) ([]string, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	return slices.Clone(q.s.GoodsCodes), nil
}

func (q *memQueries) UpdateFileUploadJob(ctx context.Context, arg database.UpdateFileUploadJobParams) (int64, error) {
	q.s.mu.Lock()
	q.s.updates = append(q.s.updates, arg)
	n := len(q.s.updates)
	hook := q.s.OnUpdate
	q.s.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	j, ok := q.s.jobs[arg.ID]
	if !ok || j.Status != core.JobStatusPending {
		return 0, nil
	}
	j.Status = arg.Status
	j.Progress = arg.Progress
	j.Response = arg.Response
	j.LastUpdated = arg.LastUpdated
	q.s.jobs[arg.ID] = j
	return 1, nil
}

// ErrInsert is a ready-made InsertErr.
var ErrInsert = errors.New("insert failed")
