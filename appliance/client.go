// Package appliance contains the HTTP client for the upstream DNS filtering
// appliance. It translates the upstream wire format into the internal model
// at this boundary, the rest of the engine never sees upstream field names.
package appliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dnsboard/dnsboard/config"
	"github.com/dnsboard/dnsboard/evt"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/model"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

const (
	loggerPrefixAppliance = "appliance"

	querylogPath = "/control/querylog"
	clientsPath  = "/control/clients"
)

// TransientError represents a temporary error like timeout, network errors...
type TransientError struct {
	inner error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("temporary error occurred: %v", e.inner)
}

func (e *TransientError) Unwrap() error {
	return e.inner
}

// LogPage is one page of the upstream query log
type LogPage struct {
	Records []model.LogRecord
	// Oldest is the cursor token for the next older page
	Oldest string
	// HasMore is inferred: the upstream does not report it, a full page
	// means that older records probably exist
	HasMore bool
}

type logPageDTO struct {
	Data   []logItemDTO `json:"data"`
	Oldest string       `json:"oldest"`
}

type logItemDTO struct {
	Time     string      `json:"time"`
	Question questionDTO `json:"question"`
	Client   string      `json:"client"`
	Reason   string      `json:"reason"`
	Status   string      `json:"status"`
	Upstream string      `json:"upstream"`
	Elapsed  string      `json:"elapsedMs"`
}

type questionDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type clientListDTO struct {
	Clients []model.ApplianceClient `json:"clients"`
}

// Client calls the appliance API
type Client struct {
	baseURL       string
	username      string
	password      string
	retryAttempts uint
	retryCooldown time.Duration
	http          *http.Client
}

// NewClient creates a new appliance API client from the configuration
func NewClient(cfg config.ApplianceConfig) *Client {
	return &Client{
		baseURL:       cfg.URL,
		username:      cfg.Username,
		password:      cfg.Password,
		retryAttempts: cfg.RetryAttempts,
		retryCooldown: cfg.RetryCooldown.ToDuration(),
		http: &http.Client{
			Timeout: cfg.Timeout.ToDuration(),
		},
	}
}

func logger() *logrus.Entry {
	return log.PrefixedLog(loggerPrefixAppliance)
}

// FetchLogs retrieves one page of the query log. Only the predicates the
// upstream API understands are passed along (free text search and the coarse
// block status), everything else is applied locally by the filter engine.
// An empty olderThan token fetches the newest page.
func (c *Client) FetchLogs(ctx context.Context, spec model.FilterSpec, limit int, olderThan string) (*LogPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	if olderThan != "" {
		params.Set("older_than", olderThan)
	}

	if search := spec.NativeSearch(); search != "" {
		params.Set("search", search)
	}

	if status := spec.NativeResponseStatus(); status != model.ResponseStatusAll {
		params.Set("response_status", status)
	}

	body, err := c.get(ctx, querylogPath, params)
	if err != nil {
		return nil, err
	}

	var dto logPageDTO

	if err := json.Unmarshal(body, &dto); err != nil {
		// a single malformed page must not abort a multi page export
		logger().Warnf("can't parse query log page, treating it as empty: %v", err)
		evt.Bus().Publish(evt.QuerylogPageDegraded, err.Error())

		return &LogPage{}, nil
	}

	records := make([]model.LogRecord, 0, len(dto.Data))

	for _, item := range dto.Data {
		ts, err := time.Parse(time.RFC3339Nano, item.Time)
		if err != nil {
			logger().Debugf("skipping record with malformed timestamp '%s'", item.Time)

			continue
		}

		records = append(records, model.LogRecord{
			Timestamp:      ts,
			Domain:         item.Question.Name,
			QueryType:      item.Question.Type,
			ClientRaw:      item.Client,
			ClientResolved: item.Client,
			Blocked:        model.BlockedByReason(item.Reason),
			Reason:         item.Reason,
			ResponseCode:   item.Status,
			Upstream:       item.Upstream,
			Elapsed:        item.Elapsed,
		})
	}

	return &LogPage{
		Records: records,
		Oldest:  dto.Oldest,
		HasMore: len(dto.Data) == limit,
	}, nil
}

// FetchClients retrieves the registered client list, used to build the
// client identity index
func (c *Client) FetchClients(ctx context.Context) ([]model.ApplianceClient, error) {
	body, err := c.get(ctx, clientsPath, nil)
	if err != nil {
		return nil, err
	}

	var dto clientListDTO

	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("can't parse client list: %w", err)
	}

	return dto.Clients, nil
}

// get performs one GET call with bounded exponential backoff. Transient
// failures (network errors, timeouts, 5xx) are retried, 4xx responses are
// surfaced immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			if c.username != "" {
				req.SetBasicAuth(c.username, c.password)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					return &TransientError{inner: netErr}
				}

				return &TransientError{inner: err}
			}

			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= http.StatusInternalServerError {
				return &TransientError{inner: fmt.Errorf("got status code %d", resp.StatusCode)}
			}

			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("got status code %d", resp.StatusCode))
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return &TransientError{inner: err}
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(c.retryCooldown),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var transientErr *TransientError

			return errors.As(err, &transientErr)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger().WithField("attempt",
				fmt.Sprintf("%d/%d", n+1, c.retryAttempts)).Warnf("upstream call failed: %s", err)
			evt.Bus().Publish(evt.ApplianceRequestRetried, n+1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("appliance request '%s' failed: %w", path, err)
	}

	return body, nil
}
