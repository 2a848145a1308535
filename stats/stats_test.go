package stats

import (
	"fmt"

	"github.com/dnsboard/dnsboard/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Aggregator", func() {
	Describe("Summarize", func() {
		When("the record set is empty", func() {
			It("should produce zero values without a division fault", func() {
				result := Summarize(nil)

				Expect(result.TotalQueries).Should(BeZero())
				Expect(result.BlockRate).Should(BeZero())
				Expect(result.TopDomains).Should(BeEmpty())
			})
		})

		When("records are aggregated", func() {
			var records []model.LogRecord

			BeforeEach(func() {
				// 25 records over 10 unique domains, one domain appears 5
				// times, 10 records are blocked
				records = nil

				for i := 0; i < 5; i++ {
					records = append(records, model.LogRecord{
						Domain: "popular.example.com", QueryType: "A",
						ClientResolved: "Office",
					})
				}

				for i := 0; i < 20; i++ {
					record := model.LogRecord{
						Domain:         fmt.Sprintf("domain%d.example.com", i%9),
						QueryType:      "AAAA",
						ClientResolved: fmt.Sprintf("client%d", i%3),
					}

					if i < 10 {
						record.Blocked = true
						record.Reason = "FilteredBlackList"
					}

					records = append(records, record)
				}
			})

			It("should keep blocked + allowed == total", func() {
				result := Summarize(records)

				Expect(result.TotalQueries).Should(Equal(25))
				Expect(result.BlockedQueries + result.AllowedQueries).Should(Equal(result.TotalQueries))
			})

			It("should compute the block rate with two decimals", func() {
				result := Summarize(records)

				Expect(result.BlockedQueries).Should(Equal(10))
				Expect(result.BlockRate).Should(Equal(40.0))
			})

			It("should rank the most frequent domain first", func() {
				result := Summarize(records)

				Expect(result.UniqueDomains).Should(Equal(10))
				Expect(result.TopDomains).Should(HaveLen(10))
				Expect(result.TopDomains[0].Name).Should(Equal("popular.example.com"))
				Expect(result.TopDomains[0].Count).Should(Equal(5))
			})

			It("should count query types", func() {
				result := Summarize(records)

				Expect(result.QueryTypeCounts).Should(HaveKeyWithValue("A", 5))
				Expect(result.QueryTypeCounts).Should(HaveKeyWithValue("AAAA", 20))
			})

			It("should count block reasons of blocked queries only", func() {
				result := Summarize(records)

				Expect(result.BlockReasonCounts).Should(HaveKeyWithValue("FilteredBlackList", 10))
				Expect(result.TopBlockReasons).Should(HaveLen(1))
			})

			It("should roll domains up to their registrable domain", func() {
				result := Summarize(records)

				Expect(result.TopRegistrableDomains).Should(HaveLen(1))
				Expect(result.TopRegistrableDomains[0].Name).Should(Equal("example.com"))
				Expect(result.TopRegistrableDomains[0].Count).Should(Equal(25))
			})
		})

		When("counts are tied", func() {
			It("should break ties by first seen order", func() {
				records := []model.LogRecord{
					{Domain: "b.com"},
					{Domain: "a.com"},
					{Domain: "c.com"},
				}

				result := Summarize(records)

				Expect(result.TopDomains).Should(Equal([]model.NameCount{
					{Name: "b.com", Count: 1},
					{Name: "a.com", Count: 1},
					{Name: "c.com", Count: 1},
				}))
			})
		})
	})

	Describe("TopBlockedDomains", func() {
		It("should only rank blocked queries", func() {
			records := []model.LogRecord{
				{Domain: "ok.com"},
				{Domain: "bad.com", Blocked: true, Reason: "FilteredBlackList"},
				{Domain: "bad.com", Blocked: true, Reason: "FilteredBlackList"},
			}

			result := TopBlockedDomains(records, 20)

			Expect(result).Should(Equal([]model.NameCount{{Name: "bad.com", Count: 2}}))
		})
	})

	Describe("block rate rounding", func() {
		It("should round to two decimal places", func() {
			records := []model.LogRecord{
				{Blocked: true, Reason: "FilteredBlackList"}, {}, {},
			}

			result := Summarize(records)

			Expect(result.BlockRate).Should(Equal(33.33))
		})
	})
})
