// Package export persists export jobs and produces durable CSV/JSON
// artifacts from accumulated query log pages. Jobs are created pending by the
// request handler and driven to a terminal state by a background worker pool,
// the job record is the sole coordination point.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dnsboard/dnsboard/config"
	"github.com/dnsboard/dnsboard/evt"
	"github.com/dnsboard/dnsboard/filtering"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/util"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"
)

const (
	loggerPrefixExport = "export"

	jobQueueSize = 128
)

// Collector accumulates filtered records over multiple upstream pages,
// implemented by querylog.Service
type Collector interface {
	Collect(ctx context.Context, spec model.FilterSpec, maxRecords int) ([]model.LogRecord, error)
}

// Pipeline accepts export jobs and processes them asynchronously
type Pipeline struct {
	store      *Store
	collector  Collector
	directory  string
	defaultMax int
	workers    int

	jobs   chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipeline creates the pipeline, the export directory is created if
// missing
func NewPipeline(store *Store, collector Collector, cfg config.ExportConfig) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("can't create export directory '%s': %w", cfg.Directory, err)
	}

	return &Pipeline{
		store:      store,
		collector:  collector,
		directory:  cfg.Directory,
		defaultMax: cfg.MaxRecords,
		workers:    cfg.Workers,
		jobs:       make(chan string, jobQueueSize),
	}, nil
}

func logger() *logrus.Entry {
	return log.PrefixedLog(loggerPrefixExport)
}

// Start recovers jobs left behind by the previous run and launches the
// worker pool
func (p *Pipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.recoverJobs()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)

		go func() {
			defer p.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case id := <-p.jobs:
					p.process(ctx, id)
				}
			}
		}()
	}
}

// recoverJobs fails jobs whose processing was cut off by the last shutdown
// and re-enqueues the ones which were still pending
func (p *Pipeline) recoverJobs() {
	interrupted, err := p.store.IDsInStatus(model.JobStatusProcessing)
	if err != nil {
		logger().Errorf("can't query interrupted jobs: %v", err)

		return
	}

	for _, id := range interrupted {
		p.fail(id, fmt.Errorf("processing was interrupted by a restart"))
	}

	pending, err := p.store.IDsInStatus(model.JobStatusPending)
	if err != nil {
		logger().Errorf("can't query pending jobs: %v", err)

		return
	}

	for _, id := range pending {
		select {
		case p.jobs <- id:
			logger().WithField("job_id", id).Info("re-enqueued pending job")
		default:
			util.LogOnError("can't re-enqueue pending job: ",
				p.store.MarkAborted(id, "export queue is full"))
		}
	}
}

// Stop terminates the worker pool, running jobs finish their current page
// loop via context cancellation
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}

	p.wg.Wait()
}

// Submit validates the request, creates the pending job and enqueues it. The
// returned id can be polled for the job state.
func (p *Pipeline) Submit(format model.ExportFormat, spec model.FilterSpec, maxRecords int, requestedBy string) (string, error) {
	if _, err := model.ParseExportFormat(string(format)); err != nil {
		return "", err
	}

	if err := filtering.Validate(spec); err != nil {
		return "", err
	}

	if maxRecords <= 0 || maxRecords > p.defaultMax {
		maxRecords = p.defaultMax
	}

	serializedSpec, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}

	job := &Job{
		ID:          uuid.New().String(),
		Format:      string(format),
		FilterSpec:  string(serializedSpec),
		MaxRecords:  maxRecords,
		RequestedBy: requestedBy,
		Status:      string(model.JobStatusPending),
		CreatedAt:   time.Now(),
	}

	if err := p.store.Create(job); err != nil {
		return "", err
	}

	// a full queue must not block the submitting handler
	select {
	case p.jobs <- job.ID:
	default:
		util.LogOnError("can't abort job: ", p.store.MarkAborted(job.ID, "export queue is full"))

		return "", fmt.Errorf("export queue is full")
	}

	evt.Bus().Publish(evt.ExportJobCreated, job.ID)
	logger().WithField("job_id", job.ID).Infof("export job accepted for '%s'", requestedBy)

	return job.ID, nil
}

// Job returns the persisted state of the job with the passed id
func (p *Pipeline) Job(id string) (*Job, error) {
	return p.store.Get(id)
}

// process drives one job from pending to a terminal state. Errors are
// recorded on the job and never raised past the pipeline boundary.
func (p *Pipeline) process(ctx context.Context, id string) {
	jobLogger := logger().WithField("job_id", id)

	if err := p.store.MarkProcessing(id); err != nil {
		jobLogger.Warnf("skipping job: %v", err)

		return
	}

	start := time.Now()

	job, err := p.store.Get(id)
	if err != nil {
		p.fail(id, err)

		return
	}

	var spec model.FilterSpec
	if err := json.Unmarshal([]byte(job.FilterSpec), &spec); err != nil {
		p.fail(id, err)

		return
	}

	records, err := p.collector.Collect(ctx, spec, job.MaxRecords)
	if err != nil {
		p.fail(id, err)

		return
	}

	filePath, fileSize, err := p.writeArtifact(job, records)
	if err != nil {
		p.fail(id, err)

		return
	}

	if err := p.store.MarkCompleted(id, filePath, fileSize, len(records)); err != nil {
		jobLogger.Errorf("can't complete job: %v", err)

		return
	}

	evt.Bus().Publish(evt.ExportJobCompleted, id, len(records))
	jobLogger.Infof("exported %d records to '%s' in %s",
		len(records), filePath, durafmt.Parse(time.Since(start).Round(time.Millisecond)))
}

// fail records the error message verbatim on the job. Partial artifacts of a
// failed run are left for the external retention policy.
func (p *Pipeline) fail(id string, cause error) {
	logger().WithField("job_id", id).Errorf("export failed: %v", cause)

	if err := p.store.MarkFailed(id, cause.Error()); err != nil {
		logger().WithField("job_id", id).Errorf("can't mark job as failed: %v", err)
	}

	evt.Bus().Publish(evt.ExportJobFailed, id, cause.Error())
}

func (p *Pipeline) writeArtifact(job *Job, records []model.LogRecord) (string, int64, error) {
	fileName := fmt.Sprintf("%s_%s.%s", job.ID, time.Now().Format("20060102-150405"), job.Format)
	filePath := filepath.Join(p.directory, fileName)

	file, err := os.Create(filePath)
	if err != nil {
		return "", 0, err
	}

	defer func() { _ = file.Close() }()

	switch model.ExportFormat(job.Format) {
	case model.ExportFormatJSON:
		err = writeJSON(file, job.ID, records)
	default:
		err = writeCSV(file, records)
	}

	if err != nil {
		return "", 0, err
	}

	info, err := file.Stat()
	if err != nil {
		return "", 0, err
	}

	return filePath, info.Size(), nil
}
