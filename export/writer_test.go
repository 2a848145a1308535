package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/dnsboard/dnsboard/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Artifact writers", func() {
	var records []model.LogRecord

	BeforeEach(func() {
		records = []model.LogRecord{
			{
				Timestamp:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				Domain:         "ads.example.com",
				QueryType:      "A",
				ClientRaw:      "10.0.0.1",
				ClientResolved: "Office",
				Blocked:        true,
				Reason:         "FilteredBlackList",
				ResponseCode:   "NOERROR",
				Upstream:       "https://dns.example.net/dns-query",
				Elapsed:        "0.5",
			},
		}
	})

	Describe("CSV", func() {
		It("should write the fixed column header and one row per record", func() {
			buffer := &bytes.Buffer{}

			Expect(writeCSV(buffer, records)).Should(Succeed())

			rows, err := csv.NewReader(buffer).ReadAll()
			Expect(err).Should(Succeed())
			Expect(rows).Should(HaveLen(2))
			Expect(rows[0]).Should(Equal(csvHeader))
			Expect(rows[1]).Should(Equal([]string{
				"2024-05-01T12:00:00Z", "ads.example.com", "A", "10.0.0.1", "Office",
				"NOERROR", "true", "FilteredBlackList", "https://dns.example.net/dns-query", "0.5",
			}))
		})
	})

	Describe("JSON", func() {
		It("should wrap the records in an export metadata envelope", func() {
			buffer := &bytes.Buffer{}

			Expect(writeJSON(buffer, "job-1", records)).Should(Succeed())

			var envelope jsonEnvelope
			Expect(json.Unmarshal(buffer.Bytes(), &envelope)).Should(Succeed())

			Expect(envelope.ExportInfo.ExportID).Should(Equal("job-1"))
			Expect(envelope.ExportInfo.RecordCount).Should(Equal(1))
			Expect(envelope.Logs).Should(HaveLen(1))
			Expect(envelope.Logs[0].Domain).Should(Equal("ads.example.com"))
		})
	})
})
