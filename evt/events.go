package evt

import (
	"github.com/asaskevich/EventBus"
)

const (
	// ApplicationStarted fires on startup. Parameter: version, build time
	ApplicationStarted = "application:started"

	// QuerylogSearchPerformed fires after a search request was served. Parameter: record count
	QuerylogSearchPerformed = "querylog:searchPerformed"

	// QuerylogPageDegraded fires if an upstream page could not be parsed and was replaced
	// by an empty page. Parameter: error message
	QuerylogPageDegraded = "querylog:pageDegraded"

	// ApplianceRequestRetried fires on every retry of an upstream call. Parameter: attempt number
	ApplianceRequestRetried = "appliance:requestRetried"

	// ExportJobCreated fires if a new export job was accepted. Parameter: job id
	ExportJobCreated = "export:jobCreated"

	// ExportJobCompleted fires if an export job reached the completed state. Parameter: job id, record count
	ExportJobCompleted = "export:jobCompleted"

	// ExportJobFailed fires if an export job reached the failed state. Parameter: job id, error message
	ExportJobFailed = "export:jobFailed"
)

//nolint:gochecknoglobals
var evtBus = EventBus.New()

// Bus returns the global event bus
func Bus() EventBus.Bus {
	return evtBus
}
