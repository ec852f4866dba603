package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/refdata/internal/config"
	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/decode"
	"github.com/JonMunkholm/refdata/internal/logging"
	"github.com/JonMunkholm/refdata/internal/schema"
)

var (
	// ErrUnknownDataType is returned for a data type with no registered dataset.
	ErrUnknownDataType = errors.New("unknown data type")

	// ErrNoFile is returned for an upload without content.
	ErrNoFile = errors.New("no file provided")
)

// defaultTaskRetention is how long a finished task stays awaitable.
const defaultTaskRetention = 10 * time.Minute

// referenceLoaders fetch the reference lists that schemas bind by name.
var referenceLoaders = map[string]func(database.Querier, context.Context) ([]string, error){
	schema.RefCountries:  database.Querier.ListCountryCodes,
	schema.RefGoodsCodes: database.Querier.ListHs6pCodes,
}

// Service validates uploads and runs their persistence as detached tasks.
type Service struct {
	store     Store
	catalog   *schema.Catalog
	jobs      *JobTracker
	persister *BatchPersister
	limiter   *TaskLimiter

	decodeOpts decode.Options
	batchSize  int
	retention  time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	tasks map[int64]*persistTask
}

// persistTask is a running or recently finished persistence run.
type persistTask struct {
	jobID    int64
	uploadID string
	dataType DataType
	done     chan struct{}

	// totals and err are written before done is closed.
	totals Totals
	err    error
}

// submission is a validated upload ready to be planned.
type submission struct {
	def       DatasetDefinition
	filename  string
	uploadID  string
	checksum  string
	origin    string
	sources   [][]schema.ValidatedRow
	refs      schema.References
	noOfRows  int
	errorList []schema.ErrorSummary
}

// NewService creates a service over store using cfg.
func NewService(store Store, cfg *config.Config) (*Service, error) {
	catalog, err := schema.LoadCatalog(cfg.Schema.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load schema catalog: %w", err)
	}
	if cfg.Schema.DateLayout != "" {
		catalog = catalog.WithDateLayout(cfg.Schema.DateLayout)
	}

	retention := cfg.Upload.TaskRetention
	if retention <= 0 {
		retention = defaultTaskRetention
	}

	jobs := NewJobTracker(store.Queries())
	return &Service{
		store:     store,
		catalog:   catalog,
		jobs:      jobs,
		persister: NewBatchPersister(store, jobs, cfg.Upload.CheckpointPercent),
		limiter:   NewTaskLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		decodeOpts: decode.Options{
			Encoding:     cfg.Upload.SourceEncoding,
			MaxEntrySize: cfg.Upload.MaxFileSize,
		},
		batchSize: cfg.Upload.BatchSize,
		retention: retention,
		now:       time.Now,
		tasks:     make(map[int64]*persistTask),
	}, nil
}

// DataTypes returns the registered datasets.
func (s *Service) DataTypes() []DatasetInfo {
	defs := All()
	infos := make([]DatasetInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Upload decodes, validates and reduces an uploaded file, then starts its
// persistence in the background. The response is always filled in; on
// failure it carries status error and err explains why.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	sub, err := s.prepareUpload(ctx, req)
	if err != nil {
		resp := FailedUpload(err)
		resp.Filename = req.Filename
		if sub != nil {
			resp.ErrorList = sub.errorList
			resp.UploadID = sub.uploadID
			resp.Checksum = sub.checksum
		}
		return resp, err
	}
	return s.submit(ctx, sub)
}

// SubmitRows starts persistence of rows that are already in validated form,
// such as a converted web-service feed.
func (s *Service) SubmitRows(ctx context.Context, dataType DataType, filename string, sources [][]schema.ValidatedRow, origin string) (UploadResponse, error) {
	fail := func(err error) (UploadResponse, error) {
		resp := FailedUpload(err)
		resp.Filename = filename
		return resp, err
	}

	def, ok := Get(dataType)
	if !ok {
		return fail(fmt.Errorf("%w %q", ErrUnknownDataType, dataType))
	}
	if len(sources) != len(def.Info.Sources) {
		return fail(fmt.Errorf("data type %s takes %d sources, got %d", dataType, len(def.Info.Sources), len(sources)))
	}
	if len(sources[0]) == 0 {
		return fail(&schema.EmptyInputError{Schema: def.Info.Sources[0]})
	}

	refs, err := s.loadReferences(ctx, def.Info.Refs)
	if err != nil {
		return fail(err)
	}

	return s.submit(ctx, &submission{
		def:      def,
		filename: filename,
		uploadID: uuid.New().String(),
		origin:   origin,
		sources:  sources,
		refs:     refs,
		noOfRows: len(sources[0]),
	})
}

func (s *Service) prepareUpload(ctx context.Context, req UploadRequest) (*submission, error) {
	def, ok := Get(req.DataType)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDataType, req.DataType)
	}
	if len(req.Data) == 0 {
		return nil, ErrNoFile
	}

	sub := &submission{
		def:      def,
		filename: req.Filename,
		uploadID: uuid.New().String(),
		checksum: decode.Checksum(req.Data),
		origin:   OriginUpload,
	}
	logger := logging.WithFields(ctx,
		"upload_id", sub.uploadID,
		"data_type", string(req.DataType),
		"filename", req.Filename,
	)

	raw, err := s.decodeSources(def, req)
	if err != nil {
		return sub, err
	}

	refs, err := s.loadReferences(ctx, s.refsFor(def))
	if err != nil {
		return sub, err
	}
	sub.refs = refs

	sub.sources = make([][]schema.ValidatedRow, len(raw))
	for i, rows := range raw {
		name := def.Info.Sources[i]
		sch, err := s.catalog.Schema(name, refs)
		if err != nil {
			return sub, err
		}

		valid, rowErrs, err := schema.Validate(rows, sch)
		if i == 0 {
			sub.noOfRows = len(rows)
			sub.errorList = schema.SummarizeErrors(rowErrs)
		}

		var empty *schema.EmptyInputError
		switch {
		case err == nil:
		case errors.As(err, &empty) && i > 0:
			// Only the primary source must yield rows.
		default:
			return sub, err
		}
		sub.sources[i] = valid

		logger.Debug("source validated",
			"schema", name,
			"rows", len(rows),
			"valid", len(valid),
			"errors", len(rowErrs),
		)
	}
	return sub, nil
}

// decodeSources returns the raw rows of every source of def, in order.
func (s *Service) decodeSources(def DatasetDefinition, req UploadRequest) ([][]schema.RawRow, error) {
	if !def.Info.Archive {
		rows, err := decode.Sheet(req.Filename, req.Data, s.decodeOpts)
		if err != nil {
			return nil, err
		}
		return [][]schema.RawRow{rows}, nil
	}

	if decode.FormatOf(req.Filename) != decode.FormatZip {
		return nil, fmt.Errorf("%w: %s expects a zip archive", decode.ErrUnsupportedFormat, def.Info.Type)
	}
	files, err := decode.Archive(req.Data, len(def.Info.Sources), s.decodeOpts)
	if err != nil {
		return nil, err
	}

	out := make([][]schema.RawRow, len(files))
	for i, f := range files {
		rows, err := decode.Sheet(f.Name, f.Data, s.decodeOpts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out[i] = rows
	}
	return out, nil
}

func (s *Service) refsFor(def DatasetDefinition) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range append(s.catalog.RefsFor(def.Info.Sources...), def.Info.Refs...) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// loadReferences fetches the named reference lists concurrently.
func (s *Service) loadReferences(ctx context.Context, names []string) (schema.References, error) {
	refs := make(schema.References, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	q := s.store.Queries()
	for _, name := range names {
		name := name
		load, ok := referenceLoaders[name]
		if !ok {
			return nil, fmt.Errorf("unknown reference list %q", name)
		}
		g.Go(func() error {
			list, err := load(q, gctx)
			if err != nil {
				return fmt.Errorf("load reference list %s: %w", name, err)
			}
			if list == nil {
				list = []string{}
			}
			mu.Lock()
			refs[name] = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// submit plans the persistence run, creates its job and starts it.
func (s *Service) submit(ctx context.Context, sub *submission) (UploadResponse, error) {
	fail := func(err error) (UploadResponse, error) {
		resp := FailedUpload(err)
		resp.Filename = sub.filename
		resp.ErrorList = sub.errorList
		resp.UploadID = sub.uploadID
		resp.Checksum = sub.checksum
		return resp, err
	}

	plan, err := sub.def.Prepare(ctx, PrepareInput{
		Sources:   sub.sources,
		Refs:      sub.refs,
		Origin:    sub.origin,
		BatchSize: s.batchSize,
		Now:       s.now(),
	})
	if err != nil {
		return fail(fmt.Errorf("prepare %s: %w", sub.def.Info.Type, err))
	}
	if plan.Setup != nil {
		if err := plan.Setup(ctx, s.store.Queries()); err != nil {
			return fail(fmt.Errorf("setup %s: %w", plan.Target, err))
		}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return fail(err)
	}
	jobID, err := s.jobs.Create(ctx, sub.def.Info.Type, sub.filename)
	if err != nil {
		s.limiter.Release()
		return fail(err)
	}

	task := &persistTask{
		jobID:    jobID,
		uploadID: sub.uploadID,
		dataType: sub.def.Info.Type,
		done:     make(chan struct{}),
	}
	s.mu.Lock()
	s.tasks[jobID] = task
	s.mu.Unlock()

	logger := logging.ForTask(ctx, string(task.dataType), jobID, sub.uploadID)
	logger.Info("persistence started", "units", plan.Units, "target", plan.Target)

	go s.run(context.WithoutCancel(ctx), task, JobRef{ID: jobID, Filename: sub.filename}, plan, logger)

	resp := UploadResponse{
		Status:          StatusSuccess,
		Filename:        sub.filename,
		NoOfRows:        sub.noOfRows,
		ExcludeRowCount: plan.Excluded,
		ErrorList:       sub.errorList,
		JobID:           jobID,
		UploadID:        sub.uploadID,
		Checksum:        sub.checksum,
	}
	// Archive datasets only know their uploaded count once expanded; the
	// job record carries it.
	if !sub.def.Info.Archive {
		uploaded := len(sub.sources[0]) - plan.Excluded
		resp.NoOfRowsUploaded = &uploaded
	}
	return resp, nil
}

// run executes plan detached from the request. Failures are logged and kept
// on the task; the job row stays at its last checkpoint.
func (s *Service) run(ctx context.Context, task *persistTask, job JobRef, plan *Plan, logger *slog.Logger) {
	start := time.Now()
	defer s.limiter.Release()
	defer s.finish(task)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in persistence task", "panic", r)
			task.err = fmt.Errorf("internal error: %v", r)
		}
	}()

	totals, err := s.persister.Run(ctx, job, plan, logger)
	task.totals = totals
	task.err = err

	switch {
	case errors.Is(err, ErrJobCancelled):
		logger.Info("persistence cancelled", "rows", totals.Rows)
	case err != nil:
		logger.Error("persistence failed", "error", err, "rows", totals.Rows)
	default:
		logger.Info("persistence completed",
			"rows", totals.Rows,
			"uploaded", totals.Uploaded,
			"excluded", totals.Excluded,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// finish marks task done and forgets it after the retention period.
func (s *Service) finish(task *persistTask) {
	close(task.done)
	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.tasks, task.jobID)
		s.mu.Unlock()
	})
}

// Await blocks until the persistence task of jobID ends and returns its
// totals and error. Tasks are forgotten some time after they end.
func (s *Service) Await(ctx context.Context, jobID int64) (Totals, error) {
	s.mu.RLock()
	task, ok := s.tasks[jobID]
	s.mu.RUnlock()
	if !ok {
		return Totals{}, fmt.Errorf("%w: no task for job %d", ErrJobNotFound, jobID)
	}

	select {
	case <-task.done:
		return task.totals, task.err
	case <-ctx.Done():
		return Totals{}, ctx.Err()
	}
}

// Cancel deletes a pending job so its task rolls back at the next
// checkpoint. An empty type means custom_duty_rate. It returns the number of
// job rows deleted.
func (s *Service) Cancel(ctx context.Context, id int64, typ DataType) (int64, error) {
	if typ == "" {
		typ = DataTypeCustomDutyRate
	}
	return s.jobs.Cancel(ctx, id, typ)
}

// GetJob returns the job record of id.
func (s *Service) GetJob(ctx context.Context, id int64) (UploadJob, error) {
	return s.jobs.Get(ctx, id)
}

// ActiveTasks returns the number of running persistence tasks.
func (s *Service) ActiveTasks() int {
	return s.limiter.Active()
}

// WaitForTasks blocks until every running task ends or ctx is done.
func (s *Service) WaitForTasks(ctx context.Context) error {
	return s.limiter.Drain(ctx)
}
