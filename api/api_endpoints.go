package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dnsboard/dnsboard/export"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/trend"

	"github.com/go-chi/chi/v5"
)

const (
	contentTypeHeader = "content-type"
	jsonContentType   = "application/json"

	defaultSearchLimit = 500
	trendRecordBudget  = 20000
)

// Searcher serves query log searches and trend reports
type Searcher interface {
	Search(ctx context.Context, spec model.FilterSpec, limit int) ([]model.LogRecord, *model.QueryStats, error)
	Trend(ctx context.Context, start, end time.Time, bucketMinutes, maxRecords int) (*model.TrendReport, error)
}

// ExportControl accepts export jobs and exposes their state
type ExportControl interface {
	Submit(format model.ExportFormat, spec model.FilterSpec, maxRecords int, requestedBy string) (string, error)
	Job(id string) (*export.Job, error)
}

// QuerylogEndpoint serves search and trend requests
type QuerylogEndpoint struct {
	searcher Searcher
}

// ExportEndpoint serves the export job lifecycle
type ExportEndpoint struct {
	control ExportControl
}

// RegisterEndpoint registers an implementation as HTTP endpoint
func RegisterEndpoint(router chi.Router, t interface{}) {
	if a, ok := t.(Searcher); ok {
		registerQuerylogEndpoints(router, a)
	}

	if a, ok := t.(ExportControl); ok {
		registerExportEndpoints(router, a)
	}
}

func registerQuerylogEndpoints(router chi.Router, searcher Searcher) {
	e := &QuerylogEndpoint{searcher}

	router.Get(PathQuerylogSearch, e.apiSearch)
	router.Get(PathQuerylogTrends, e.apiTrends)
}

func registerExportEndpoints(router chi.Router, control ExportControl) {
	e := &ExportEndpoint{control}

	router.Post(PathQuerylogExport, e.apiExportSubmit)
	router.Get(PathQuerylogExportJob, e.apiExportStatus)
	router.Get(PathQuerylogExportFile, e.apiExportDownload)
}

// apiSearch serves one filtered page of the query log
// @Summary Query log search
// @Description Fetches one page from the appliance, applies the local filter predicates and aggregates the result
// @Tags querylog
// @Produce json
// @Success 200 {object} SearchResult
// @Failure 400 "Invalid filter specification"
// @Router /querylog/search [get]
func (e *QuerylogEndpoint) apiSearch(rw http.ResponseWriter, req *http.Request) {
	spec, err := filterSpecFromQuery(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	limit := intQueryParam(req, "limit", defaultSearchLimit)

	records, queryStats, err := e.searcher.Search(req.Context(), spec, limit)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	writeJSONResponse(rw, SearchResult{Records: records, Stats: queryStats})
}

// apiTrends serves a bucketed trend report
// @Summary Query log trends
// @Description Produces a time bucketed count series with window level summary
// @Tags querylog
// @Produce json
// @Success 200 {object} model.TrendReport
// @Failure 400 "Invalid time window"
// @Router /querylog/trends [get]
func (e *QuerylogEndpoint) apiTrends(rw http.ResponseWriter, req *http.Request) {
	start, end, err := trendWindowFromQuery(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	bucketMinutes := intQueryParam(req, "bucketMinutes", trend.BucketMinutesFor(end.Sub(start)))
	if bucketMinutes <= 0 {
		http.Error(rw, "bucketMinutes must be positive", http.StatusBadRequest)

		return
	}

	report, err := e.searcher.Trend(req.Context(), start, end, bucketMinutes, trendRecordBudget)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	writeJSONResponse(rw, report)
}

// apiExportSubmit accepts a new export job
// @Summary Submit export job
// @Description Creates a pending export job and returns its id, processing happens asynchronously
// @Tags export
// @Accept json
// @Produce json
// @Success 202 {object} ExportJobCreated
// @Failure 400 "Invalid export request"
// @Router /querylog/export [post]
func (e *ExportEndpoint) apiExportSubmit(rw http.ResponseWriter, req *http.Request) {
	var request ExportRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	jobID, err := e.control.Submit(model.ExportFormat(request.Format),
		request.Filter, request.MaxRecords, request.RequestedBy)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	rw.Header().Set(contentTypeHeader, jsonContentType)
	rw.WriteHeader(http.StatusAccepted)

	writeJSONBody(rw, ExportJobCreated{JobID: jobID})
}

// apiExportStatus returns the state of an export job
// @Summary Export job status
// @Tags export
// @Produce json
// @Success 200 {object} ExportJobStatus
// @Failure 404 "Unknown job id"
// @Router /querylog/export/{jobId} [get]
func (e *ExportEndpoint) apiExportStatus(rw http.ResponseWriter, req *http.Request) {
	job, err := e.control.Job(chi.URLParam(req, "jobId"))
	if err != nil {
		http.Error(rw, "unknown job id", http.StatusNotFound)

		return
	}

	status := ExportJobStatus{
		JobID:        job.ID,
		Status:       job.Status,
		FileSize:     job.FileSize,
		RecordCount:  job.RecordCount,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}

	if job.CompletedAt != nil {
		status.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}

	writeJSONResponse(rw, status)
}

// apiExportDownload streams the artifact of a completed export job
// @Summary Export artifact download
// @Tags export
// @Success 200 "Artifact stream"
// @Failure 404 "Unknown job id"
// @Failure 409 "Job is not completed"
// @Router /querylog/export/{jobId}/download [get]
func (e *ExportEndpoint) apiExportDownload(rw http.ResponseWriter, req *http.Request) {
	job, err := e.control.Job(chi.URLParam(req, "jobId"))
	if err != nil {
		http.Error(rw, "unknown job id", http.StatusNotFound)

		return
	}

	if model.JobStatus(job.Status) != model.JobStatusCompleted {
		http.Error(rw, "job is not completed", http.StatusConflict)

		return
	}

	rw.Header().Set("Content-Disposition", "attachment")
	http.ServeFile(rw, req, job.FilePath)
}

func filterSpecFromQuery(req *http.Request) (model.FilterSpec, error) {
	query := req.URL.Query()

	spec := model.FilterSpec{
		Domain:    query.Get("domain"),
		Client:    query.Get("client"),
		QueryType: query.Get("queryType"),
		Reason:    query.Get("reason"),
	}

	if v := query.Get("blocked"); v != "" {
		blocked, err := strconv.ParseBool(v)
		if err != nil {
			return spec, err
		}

		spec.Blocked = &blocked
	}

	if v := query.Get("from"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return spec, err
		}

		spec.Start = start
	}

	if v := query.Get("to"); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return spec, err
		}

		spec.End = end
	}

	return spec, nil
}

// trendWindowFromQuery resolves the window either from a named range
// (1h, 6h, 24h, 7d, 30d) or from explicit from/to parameters
func trendWindowFromQuery(req *http.Request) (start, end time.Time, err error) {
	query := req.URL.Query()

	if v := query.Get("range"); v != "" {
		window, parseErr := parseRange(v)
		if parseErr != nil {
			return start, end, parseErr
		}

		end = time.Now()
		start = end.Add(-window)

		return start, end, nil
	}

	start, err = time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		return start, end, err
	}

	end, err = time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		return start, end, err
	}

	return start, end, nil
}

func parseRange(v string) (time.Duration, error) {
	switch v {
	case "1h", "6h", "24h":
		return time.ParseDuration(v)
	case "7d":
		return 7 * 24 * time.Hour, nil
	case "30d":
		return 30 * 24 * time.Hour, nil
	}

	return 0, fmt.Errorf("unknown range '%s'", v)
}

func intQueryParam(req *http.Request, name string, fallback int) int {
	if v := req.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}

	return fallback
}

func writeJSONResponse(rw http.ResponseWriter, body interface{}) {
	rw.Header().Set(contentTypeHeader, jsonContentType)
	writeJSONBody(rw, body)
}

func writeJSONBody(rw http.ResponseWriter, body interface{}) {
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		log.Log().Error("unable to write response ", err)
	}
}
