package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/dnsboard/dnsboard/model"
)

//nolint:gochecknoglobals
var csvHeader = []string{
	"timestamp", "domain", "query_type", "client_ip", "client_name",
	"response_code", "blocked", "block_reason", "upstream", "elapsed_ms",
}

func writeCSV(w io.Writer, records []model.LogRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, record := range records {
		row := []string{
			record.Timestamp.Format(time.RFC3339),
			record.Domain,
			record.QueryType,
			record.ClientRaw,
			record.ClientResolved,
			record.ResponseCode,
			strconv.FormatBool(record.Blocked),
			record.Reason,
			record.Upstream,
			record.Elapsed,
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

type exportInfo struct {
	ExportID    string    `json:"export_id"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
}

type jsonEnvelope struct {
	ExportInfo exportInfo        `json:"export_info"`
	Logs       []model.LogRecord `json:"logs"`
}

func writeJSON(w io.Writer, jobID string, records []model.LogRecord) error {
	envelope := jsonEnvelope{
		ExportInfo: exportInfo{
			ExportID:    jobID,
			Timestamp:   time.Now(),
			RecordCount: len(records),
		},
		Logs: records,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(envelope)
}
