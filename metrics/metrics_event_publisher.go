package metrics

import (
	"github.com/dnsboard/dnsboard/evt"
	"github.com/dnsboard/dnsboard/util"

	"github.com/prometheus/client_golang/prometheus"
)

// registerEventListeners registers all metric handlers by the event bus
func registerEventListeners() {
	registerQuerylogEventListeners()
	registerExportEventListeners()
}

func registerQuerylogEventListeners() {
	searchCnt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dnsboard_querylog_searches_total",
		Help: "Number of served query log searches",
	})

	degradedPagesCnt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dnsboard_querylog_degraded_pages_total",
		Help: "Number of unparseable upstream pages degraded to empty pages",
	})

	retriesCnt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dnsboard_appliance_retries_total",
		Help: "Number of retried upstream appliance calls",
	})

	RegisterMetric(searchCnt)
	RegisterMetric(degradedPagesCnt)
	RegisterMetric(retriesCnt)

	subscribe(evt.QuerylogSearchPerformed, func(recordCount int) {
		searchCnt.Inc()
	})

	subscribe(evt.QuerylogPageDegraded, func(message string) {
		degradedPagesCnt.Inc()
	})

	subscribe(evt.ApplianceRequestRetried, func(attempt uint) {
		retriesCnt.Inc()
	})
}

func registerExportEventListeners() {
	jobsCnt := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsboard_export_jobs_total",
		Help: "Number of export jobs by outcome",
	}, []string{"outcome"})

	exportedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dnsboard_export_records_total",
		Help: "Number of exported records",
	})

	RegisterMetric(jobsCnt)
	RegisterMetric(exportedRecords)

	subscribe(evt.ExportJobCreated, func(jobID string) {
		jobsCnt.WithLabelValues("created").Inc()
	})

	subscribe(evt.ExportJobCompleted, func(jobID string, recordCount int) {
		jobsCnt.WithLabelValues("completed").Inc()
		exportedRecords.Add(float64(recordCount))
	})

	subscribe(evt.ExportJobFailed, func(jobID, message string) {
		jobsCnt.WithLabelValues("failed").Inc()
	})
}

func subscribe(topic string, fn interface{}) {
	util.LogOnError("can't subscribe to event bus: ", evt.Bus().Subscribe(topic, fn))
}
