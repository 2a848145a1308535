// Package stats computes summary counters and top-N rankings over a batch of
// log records. Every caller (search API, trend analyzer, export pipeline)
// routes through this single aggregator.
package stats

import (
	"math"

	"github.com/dnsboard/dnsboard/model"
	"github.com/dnsboard/dnsboard/util"

	"golang.org/x/net/publicsuffix"
)

// DefaultTopCount is the ranking length used unless a caller asks for more
const DefaultTopCount = 10

// counter counts keys and remembers their first seen order for deterministic
// tie breaking
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) put(key string) {
	if key == "" {
		return
	}

	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}

	c.counts[key]++
}

func (c *counter) top(n int) []model.NameCount {
	result := make([]model.NameCount, 0, n)

	util.IterateValueSorted(c.counts, c.order, func(key string, count int) {
		if len(result) < n {
			result = append(result, model.NameCount{Name: key, Count: count})
		}
	})

	return result
}

func (c *counter) asMap() map[string]int {
	result := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		result[k] = v
	}

	return result
}

// Summarize aggregates the batch with the default ranking length
func Summarize(records []model.LogRecord) *model.QueryStats {
	return SummarizeTop(records, DefaultTopCount)
}

// SummarizeTop aggregates the batch, rankings are truncated to topCount
// entries
func SummarizeTop(records []model.LogRecord, topCount int) *model.QueryStats {
	domains := newCounter()
	clients := newCounter()
	reasons := newCounter()
	registrable := newCounter()
	queryTypes := newCounter()

	blocked := 0

	for _, record := range records {
		domains.put(record.Domain)
		clients.put(record.ClientResolved)
		queryTypes.put(record.QueryType)
		registrable.put(registrableDomain(record.Domain))

		if record.Blocked {
			blocked++
			reasons.put(record.Reason)
		}
	}

	total := len(records)

	return &model.QueryStats{
		TotalQueries:          total,
		BlockedQueries:        blocked,
		AllowedQueries:        total - blocked,
		BlockRate:             blockRate(blocked, total),
		UniqueDomains:         len(domains.counts),
		UniqueClients:         len(clients.counts),
		TopDomains:            domains.top(topCount),
		TopClients:            clients.top(topCount),
		TopBlockReasons:       reasons.top(topCount),
		TopRegistrableDomains: registrable.top(topCount),
		QueryTypeCounts:       queryTypes.asMap(),
		BlockReasonCounts:     reasons.asMap(),
	}
}

// TopBlockedDomains ranks the domains of blocked queries only
func TopBlockedDomains(records []model.LogRecord, topCount int) []model.NameCount {
	domains := newCounter()

	for _, record := range records {
		if record.Blocked {
			domains.put(record.Domain)
		}
	}

	return domains.top(topCount)
}

func blockRate(blocked, total int) float64 {
	if total == 0 {
		return 0
	}

	const percent = 100

	rate := float64(blocked) / float64(total) * percent

	return math.Round(rate*percent) / percent
}

// registrableDomain rolls a query name up to its registrable domain (eTLD+1).
// Names which are themselves a public suffix stay unchanged.
func registrableDomain(domain string) string {
	etld, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}

	return etld
}
