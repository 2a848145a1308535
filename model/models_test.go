package model

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Models", func() {
	Describe("BlockedByReason", func() {
		It("should treat a filter reason as blocked", func() {
			Expect(BlockedByReason("FilteredBlackList")).Should(BeTrue())
		})

		It("should treat an empty reason as not blocked", func() {
			Expect(BlockedByReason("")).Should(BeFalse())
		})

		It("should treat an allowlist match as not blocked", func() {
			Expect(BlockedByReason(ReasonNotFilteredAllowlisted)).Should(BeFalse())
		})
	})

	Describe("FilterSpec", func() {
		It("should report a zero spec as empty", func() {
			Expect(FilterSpec{}.IsEmpty()).Should(BeTrue())
			Expect(FilterSpec{Domain: "example.com"}.IsEmpty()).Should(BeFalse())
			Expect(FilterSpec{Start: time.Now()}.IsEmpty()).Should(BeFalse())
		})

		Describe("NativeSearch", func() {
			It("should prefer the domain predicate", func() {
				spec := FilterSpec{Domain: "example.com", Client: "Office"}

				Expect(spec.NativeSearch()).Should(Equal("example.com"))
			})

			It("should fall back to the client predicate", func() {
				Expect(FilterSpec{Client: "Office"}.NativeSearch()).Should(Equal("Office"))
				Expect(FilterSpec{}.NativeSearch()).Should(BeEmpty())
			})
		})

		Describe("NativeResponseStatus", func() {
			It("should map the blocked predicate onto the upstream enum", func() {
				blocked := true
				allowed := false

				Expect(FilterSpec{}.NativeResponseStatus()).Should(Equal(ResponseStatusAll))
				Expect(FilterSpec{Blocked: &blocked}.NativeResponseStatus()).Should(Equal(ResponseStatusFiltered))
				Expect(FilterSpec{Blocked: &allowed}.NativeResponseStatus()).Should(Equal(ResponseStatusProcessed))
			})
		})
	})

	Describe("ParseExportFormat", func() {
		It("should accept the supported formats", func() {
			format, err := ParseExportFormat("csv")
			Expect(err).Should(Succeed())
			Expect(format).Should(Equal(ExportFormatCSV))

			format, err = ParseExportFormat("json")
			Expect(err).Should(Succeed())
			Expect(format).Should(Equal(ExportFormatJSON))
		})

		It("should reject anything else", func() {
			_, err := ParseExportFormat("xml")

			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(Equal("unsupported export format 'xml'"))
		})
	})

	Describe("JobStatus", func() {
		It("should mark only completed and failed as terminal", func() {
			Expect(JobStatusPending.Terminal()).Should(BeFalse())
			Expect(JobStatusProcessing.Terminal()).Should(BeFalse())
			Expect(JobStatusCompleted.Terminal()).Should(BeTrue())
			Expect(JobStatusFailed.Terminal()).Should(BeTrue())
		})
	})
})
