package model

import (
	"fmt"
	"time"
)

// ReasonNotFilteredAllowlisted is the upstream reason code for queries which
// matched an allowlist rule. The appliance reports it although the query was
// answered normally.
const ReasonNotFilteredAllowlisted = "NotFilteredWhiteList"

// response_status values accepted by the upstream query log endpoint
const (
	ResponseStatusAll       = "all"
	ResponseStatusFiltered  = "filtered"
	ResponseStatusProcessed = "processed"
)

// LogRecord is one observed DNS query from the appliance's query log. Records
// are request scoped and never persisted by the engine itself.
type LogRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Domain         string    `json:"domain"`
	QueryType      string    `json:"queryType"`
	ClientRaw      string    `json:"clientRaw"`
	ClientResolved string    `json:"clientResolved"`
	Blocked        bool      `json:"blocked"`
	Reason         string    `json:"reason,omitempty"`
	ResponseCode   string    `json:"responseCode,omitempty"`
	Upstream       string    `json:"upstream,omitempty"`
	Elapsed        string    `json:"elapsedMs,omitempty"`
}

// BlockedByReason derives the blocked flag from the upstream reason code.
// Blocked must never be set independently of the reason, otherwise
// blocked + allowed == total does not hold anymore.
func BlockedByReason(reason string) bool {
	return reason != "" && reason != ReasonNotFilteredAllowlisted
}

// FilterSpec describes one search/export filter. A zero value on a dimension
// means "no constraint". The spec is immutable for the duration of one
// operation.
type FilterSpec struct {
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	Client    string    `json:"client,omitempty"`
	QueryType string    `json:"queryType,omitempty"`
	Blocked   *bool     `json:"blocked,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// IsEmpty returns true if no dimension is constrained
func (s FilterSpec) IsEmpty() bool {
	return s.Start.IsZero() && s.End.IsZero() &&
		s.Domain == "" && s.Client == "" &&
		s.QueryType == "" && s.Blocked == nil && s.Reason == ""
}

// NativeSearch returns the free text search term the upstream API can apply
// on its own. Upstream matches the term against domain and client, so passing
// either predicate only narrows the page; the full predicate set is re-applied
// locally afterwards.
func (s FilterSpec) NativeSearch() string {
	if s.Domain != "" {
		return s.Domain
	}

	return s.Client
}

// NativeResponseStatus maps the blocked predicate onto the coarse
// response_status enum of the upstream API
func (s FilterSpec) NativeResponseStatus() string {
	if s.Blocked == nil {
		return ResponseStatusAll
	}

	if *s.Blocked {
		return ResponseStatusFiltered
	}

	return ResponseStatusProcessed
}

// ApplianceClient is one registered client of the filtering appliance. An id
// is either a literal address/identifier or a CIDR range.
type ApplianceClient struct {
	Name string   `json:"name"`
	IDs  []string `json:"ids"`
}

// NameCount is one entry of a top-N ranking
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// QueryStats is the aggregation result over one batch of log records
type QueryStats struct {
	TotalQueries          int            `json:"totalQueries"`
	BlockedQueries        int            `json:"blockedQueries"`
	AllowedQueries        int            `json:"allowedQueries"`
	BlockRate             float64        `json:"blockRate"`
	UniqueDomains         int            `json:"uniqueDomains"`
	UniqueClients         int            `json:"uniqueClients"`
	TopDomains            []NameCount    `json:"topDomains"`
	TopClients            []NameCount    `json:"topClients"`
	TopBlockReasons       []NameCount    `json:"topBlockReasons"`
	TopRegistrableDomains []NameCount    `json:"topRegistrableDomains"`
	QueryTypeCounts       map[string]int `json:"queryTypeCounts"`
	BlockReasonCounts     map[string]int `json:"blockReasonCounts"`
}

// TrendBucket is one fixed width time slice of a trend series
type TrendBucket struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Blocked   int       `json:"blocked"`
	Allowed   int       `json:"allowed"`
}

// TrendReport is the response of a trend analysis, it is never persisted
type TrendReport struct {
	Start             time.Time      `json:"start"`
	End               time.Time      `json:"end"`
	BucketMinutes     int            `json:"bucketMinutes"`
	Buckets           []TrendBucket  `json:"buckets"`
	Summary           QueryStats     `json:"summary"`
	TopDomains        []NameCount    `json:"topDomains"`
	TopBlockedDomains []NameCount    `json:"topBlockedDomains"`
	TopClients        []NameCount    `json:"topClients"`
	QueryTypeCounts   map[string]int `json:"queryTypeCounts"`
	BlockReasonCounts map[string]int `json:"blockReasonCounts"`
}

// ExportFormat is the serialization format of an export artifact
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// ParseExportFormat validates and normalizes a format string
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatJSON:
		return ExportFormatJSON, nil
	}

	return "", fmt.Errorf("unsupported export format '%s'", s)
}

// JobStatus is the lifecycle state of an export job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal returns true if no further transition is allowed
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
