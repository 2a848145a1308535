// Package trend partitions a time window into fixed width buckets and
// produces a per bucket count series together with a window level summary.
package trend

import (
	"time"

	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/stats"
)

// BlockedDomainsTopCount is the longer ranking used for blocked domains in
// trend reports
const BlockedDomainsTopCount = 20

// Analyze produces a trend report for the passed window. Buckets are
// pre-allocated and zero filled so empty slices appear in the output. Records
// outside the window are excluded from the series but still contribute to the
// window level summary and rankings.
func Analyze(records []model.LogRecord, start, end time.Time, bucketMinutes int) *model.TrendReport {
	width := time.Duration(bucketMinutes) * time.Minute

	// a non positive width yields an empty series, the window summary below
	// is still computed
	bucketCount := 0

	if width > 0 {
		window := end.Sub(start)

		bucketCount = int(window / width)
		if window%width != 0 {
			bucketCount++
		}

		if bucketCount < 0 {
			bucketCount = 0
		}
	}

	buckets := make([]model.TrendBucket, bucketCount)
	for i := range buckets {
		buckets[i].Timestamp = start.Add(time.Duration(i) * width)
	}

	if width > 0 {
		for _, record := range records {
			idx := int(record.Timestamp.Sub(start) / width)
			if record.Timestamp.Before(start) || idx < 0 || idx >= bucketCount {
				continue
			}

			buckets[idx].Total++

			if record.Blocked {
				buckets[idx].Blocked++
			} else {
				buckets[idx].Allowed++
			}
		}
	}

	summary := stats.Summarize(records)

	return &model.TrendReport{
		Start:             start,
		End:               end,
		BucketMinutes:     bucketMinutes,
		Buckets:           buckets,
		Summary:           *summary,
		TopDomains:        summary.TopDomains,
		TopBlockedDomains: stats.TopBlockedDomains(records, BlockedDomainsTopCount),
		TopClients:        summary.TopClients,
		QueryTypeCounts:   summary.QueryTypeCounts,
		BlockReasonCounts: summary.BlockReasonCounts,
	}
}

// BucketMinutesFor suggests a bucket width for a window size. The analyzer
// itself accepts any explicit width, this mapping is a convenience for
// callers.
func BucketMinutesFor(window time.Duration) int {
	switch {
	case window <= time.Hour:
		return 5
	case window <= 6*time.Hour:
		return 30
	case window <= 24*time.Hour:
		return 60
	case window <= 7*24*time.Hour:
		return 6 * 60
	default:
		return 24 * 60
	}
}
