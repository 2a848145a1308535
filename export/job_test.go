package export

import (
	"time"

	"github.com/dnsboard/dnsboard/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
)

var _ = Describe("Job store", func() {
	var (
		store *Store
		job   *Job
	)

	BeforeEach(func() {
		var err error

		store, err = NewStore(":memory:")
		Expect(err).Should(Succeed())

		job = &Job{
			ID:         uuid.New().String(),
			Format:     string(model.ExportFormatCSV),
			FilterSpec: "{}",
			MaxRecords: 100,
			Status:     string(model.JobStatusPending),
			CreatedAt:  time.Now(),
		}

		Expect(store.Create(job)).Should(Succeed())
	})

	Describe("lifecycle transitions", func() {
		It("should move a pending job into processing exactly once", func() {
			Expect(store.MarkProcessing(job.ID)).Should(Succeed())
			Expect(store.MarkProcessing(job.ID)).Should(HaveOccurred())
		})

		It("should complete a processing job with artifact metadata", func() {
			Expect(store.MarkProcessing(job.ID)).Should(Succeed())
			Expect(store.MarkCompleted(job.ID, "/tmp/out.csv", 1234, 42)).Should(Succeed())

			persisted, err := store.Get(job.ID)
			Expect(err).Should(Succeed())
			Expect(persisted.Status).Should(Equal(string(model.JobStatusCompleted)))
			Expect(persisted.FilePath).Should(Equal("/tmp/out.csv"))
			Expect(persisted.FileSize).Should(BeEquivalentTo(1234))
			Expect(persisted.RecordCount).Should(Equal(42))
			Expect(persisted.CompletedAt).ShouldNot(BeNil())
		})

		It("should not complete a job which is not processing", func() {
			Expect(store.MarkCompleted(job.ID, "/tmp/out.csv", 1, 1)).Should(HaveOccurred())
		})

		It("should keep a terminal job immutable", func() {
			Expect(store.MarkProcessing(job.ID)).Should(Succeed())
			Expect(store.MarkFailed(job.ID, "boom")).Should(Succeed())

			Expect(store.MarkCompleted(job.ID, "/tmp/out.csv", 1, 1)).Should(HaveOccurred())

			persisted, err := store.Get(job.ID)
			Expect(err).Should(Succeed())
			Expect(persisted.Status).Should(Equal(string(model.JobStatusFailed)))
			Expect(persisted.ErrorMessage).Should(Equal("boom"))
		})
	})

	Describe("Get", func() {
		It("should fail for an unknown id", func() {
			_, err := store.Get("no-such-job")
			Expect(err).Should(HaveOccurred())
		})
	})
})
