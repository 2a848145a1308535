// Package querylog drives the analytics engine: it fetches pages from the
// appliance, reconciles client identities, applies the local filter engine
// and feeds the aggregator and trend analyzer.
package querylog

import (
	"context"
	"time"

	"github.com/dnsboard/dnsboard/appliance"
	"github.com/dnsboard/dnsboard/evt"
	"github.com/dnsboard/dnsboard/filtering"
	"github.com/dnsboard/dnsboard/identity"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/stats"
	"github.com/dnsboard/dnsboard/trend"

	"github.com/sirupsen/logrus"
)

const loggerPrefixQuerylog = "querylog"

// LogFetcher is the upstream interface the service needs, implemented by
// appliance.Client
type LogFetcher interface {
	FetchLogs(ctx context.Context, spec model.FilterSpec, limit int, olderThan string) (*appliance.LogPage, error)
	FetchClients(ctx context.Context) ([]model.ApplianceClient, error)
}

// Service is the query log analytics engine
type Service struct {
	fetcher  LogFetcher
	resolver *identity.Resolver
	pageSize int
}

// NewService creates the engine with the passed upstream client
func NewService(fetcher LogFetcher, pageSize int) *Service {
	return &Service{
		fetcher:  fetcher,
		resolver: identity.NewResolver(),
		pageSize: pageSize,
	}
}

func logger() *logrus.Entry {
	return log.PrefixedLog(loggerPrefixQuerylog)
}

// refreshIdentities rebuilds the client identity index from the appliance's
// current client list. A failure leaves the previous index in place so
// records still resolve to their raw identifiers at worst.
func (s *Service) refreshIdentities(ctx context.Context) {
	clients, err := s.fetcher.FetchClients(ctx)
	if err != nil {
		logger().Warnf("can't refresh client identities, resolving with stale index: %v", err)

		return
	}

	s.resolver.Rebuild(clients)
}

// Search fetches a single page, narrows it with the filter spec and returns
// the matching records together with their aggregation
func (s *Service) Search(ctx context.Context, spec model.FilterSpec, limit int) ([]model.LogRecord, *model.QueryStats, error) {
	if err := filtering.Validate(spec); err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = s.pageSize
	}

	s.refreshIdentities(ctx)

	page, err := s.fetcher.FetchLogs(ctx, spec, limit, "")
	if err != nil {
		return nil, nil, err
	}

	s.resolver.Annotate(page.Records)
	records := filtering.Apply(page.Records, spec)

	evt.Bus().Publish(evt.QuerylogSearchPerformed, len(records))

	return records, stats.Summarize(records), nil
}

// Collect accumulates filtered records over multiple pages until the budget
// is met or the upstream is exhausted. Pages are fetched strictly
// sequentially using the oldest-timestamp cursor, so the result is ordered
// monotonically non-increasing in time.
func (s *Service) Collect(ctx context.Context, spec model.FilterSpec, maxRecords int) ([]model.LogRecord, error) {
	if err := filtering.Validate(spec); err != nil {
		return nil, err
	}

	s.refreshIdentities(ctx)

	var accumulator []model.LogRecord

	olderThan := ""

	for len(accumulator) < maxRecords {
		page, err := s.fetcher.FetchLogs(ctx, spec, s.pageSize, olderThan)
		if err != nil {
			return nil, err
		}

		s.resolver.Annotate(page.Records)
		records := filtering.Apply(page.Records, spec)

		if remaining := maxRecords - len(accumulator); len(records) > remaining {
			// stop early once the budget is met, even mid-page
			records = records[:remaining]
		}

		accumulator = append(accumulator, records...)

		if !page.HasMore || page.Oldest == "" || page.Oldest == olderThan {
			break
		}

		// pages arrive newest first: once the page bottom passed the window
		// start no older page can match anymore
		if !spec.Start.IsZero() && len(page.Records) > 0 {
			if oldest := page.Records[len(page.Records)-1].Timestamp; oldest.Before(spec.Start) {
				break
			}
		}

		olderThan = page.Oldest
	}

	return accumulator, nil
}

// Trend collects the window's records and produces the bucketed trend report
func (s *Service) Trend(ctx context.Context, start, end time.Time, bucketMinutes, maxRecords int) (*model.TrendReport, error) {
	spec := model.FilterSpec{Start: start, End: end}

	records, err := s.Collect(ctx, spec, maxRecords)
	if err != nil {
		return nil, err
	}

	return trend.Analyze(records, start, end, bucketMinutes), nil
}
