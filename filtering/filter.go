// Package filtering applies the filter predicates the upstream API can not
// express to a batch of log records.
package filtering

import (
	"fmt"
	"strings"

	"github.com/dnsboard/dnsboard/model"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
)

// Apply returns the stable, order preserving subsequence of records matching
// all active predicates of the spec. String predicates use case-insensitive
// substring containment, uniformly for domain, client and reason. The time
// window is inclusive on both ends.
func Apply(records []model.LogRecord, spec model.FilterSpec) []model.LogRecord {
	if spec.IsEmpty() {
		return records
	}

	result := make([]model.LogRecord, 0, len(records))

	for _, record := range records {
		if matches(record, spec) {
			result = append(result, record)
		}
	}

	return result
}

func matches(record model.LogRecord, spec model.FilterSpec) bool {
	if !spec.Start.IsZero() && record.Timestamp.Before(spec.Start) {
		return false
	}

	if !spec.End.IsZero() && record.Timestamp.After(spec.End) {
		return false
	}

	if !containsFold(record.Domain, spec.Domain) {
		return false
	}

	if spec.Client != "" &&
		!containsFold(record.ClientResolved, spec.Client) && !containsFold(record.ClientRaw, spec.Client) {
		return false
	}

	if spec.QueryType != "" && !strings.EqualFold(record.QueryType, spec.QueryType) {
		return false
	}

	if spec.Blocked != nil && record.Blocked != *spec.Blocked {
		return false
	}

	return containsFold(record.Reason, spec.Reason)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}

	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Validate rejects specs no upstream call should be made for. All violations
// are reported at once.
func Validate(spec model.FilterSpec) error {
	var result *multierror.Error

	if !spec.Start.IsZero() && !spec.End.IsZero() && spec.End.Before(spec.Start) {
		result = multierror.Append(result, fmt.Errorf("time window end is before start"))
	}

	if spec.QueryType != "" {
		if _, ok := dns.StringToType[strings.ToUpper(spec.QueryType)]; !ok {
			result = multierror.Append(result, fmt.Errorf("unknown query type '%s'", spec.QueryType))
		}
	}

	return result.ErrorOrNil()
}
