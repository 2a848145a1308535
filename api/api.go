// @title dnsboard API
// @description administrative console API for a DNS filtering appliance

// @BasePath /api/
package api

import (
	"github.com/dnsboard/dnsboard/model"
)

const (
	PathQuerylogSearch     = "/api/querylog/search"
	PathQuerylogTrends     = "/api/querylog/trends"
	PathQuerylogExport     = "/api/querylog/export"
	PathQuerylogExportJob  = "/api/querylog/export/{jobId}"
	PathQuerylogExportFile = "/api/querylog/export/{jobId}/download"
)

// SearchResult is the response of a query log search
type SearchResult struct {
	Records []model.LogRecord `json:"records"`
	Stats   *model.QueryStats `json:"stats"`
}

// ExportRequest is the body of an export job submission
type ExportRequest struct {
	Format      string           `json:"format"`
	MaxRecords  int              `json:"maxRecords"`
	RequestedBy string           `json:"requestedBy"`
	Filter      model.FilterSpec `json:"filter"`
}

// ExportJobCreated is the response of a successful export submission
type ExportJobCreated struct {
	JobID string `json:"jobId"`
}

// ExportJobStatus is the queryable state of an export job
type ExportJobStatus struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	FileSize     int64  `json:"file_size"`
	RecordCount  int    `json:"record_count"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}
