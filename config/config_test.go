package config

import (
	"time"

	"github.com/dnsboard/dnsboard/helpertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	Describe("NewConfig", func() {
		When("the file contains a minimal valid configuration", func() {
			It("should fill the remaining fields with defaults", func() {
				file := helpertest.TempFile(`
appliance:
  url: http://192.168.1.2:8080
`)

				cfg, err := NewConfig(file.Name())

				Expect(err).Should(Succeed())
				Expect(cfg.Appliance.URL).Should(Equal("http://192.168.1.2:8080"))
				Expect(cfg.Appliance.Timeout.ToDuration()).Should(Equal(5 * time.Second))
				Expect(cfg.Appliance.RetryAttempts).Should(Equal(uint(3)))
				Expect(cfg.Appliance.RetryCooldown.ToDuration()).Should(Equal(500 * time.Millisecond))
				Expect(cfg.Appliance.PageSize).Should(Equal(500))
				Expect(cfg.Export.MaxRecords).Should(Equal(10000))
				Expect(cfg.Export.Workers).Should(Equal(2))
				Expect(cfg.Port).Should(Equal(uint16(4000)))
			})
		})

		When("the file overrides defaults", func() {
			It("should keep the overridden values", func() {
				file := helpertest.TempFile(`
appliance:
  url: http://192.168.1.2:8080
  username: admin
  password: secret
  timeout: 10s
  pageSize: 100
export:
  workers: 4
port: 8081
`)

				cfg, err := NewConfig(file.Name())

				Expect(err).Should(Succeed())
				Expect(cfg.Appliance.Username).Should(Equal("admin"))
				Expect(cfg.Appliance.Timeout.ToDuration()).Should(Equal(10 * time.Second))
				Expect(cfg.Appliance.PageSize).Should(Equal(100))
				Expect(cfg.Export.Workers).Should(Equal(4))
				Expect(cfg.Port).Should(Equal(uint16(8081)))
			})
		})

		When("the appliance url is missing", func() {
			It("should fail the validation", func() {
				file := helpertest.TempFile(`
export:
  workers: 1
`)

				_, err := NewConfig(file.Name())

				Expect(err).Should(HaveOccurred())
				Expect(err.Error()).Should(ContainSubstring("appliance.url is required"))
			})
		})

		When("multiple values are invalid", func() {
			It("should report all of them", func() {
				file := helpertest.TempFile(`
appliance:
  url: http://192.168.1.2:8080
  pageSize: 0
export:
  maxRecords: -1
`)

				_, err := NewConfig(file.Name())

				Expect(err).Should(HaveOccurred())
				Expect(err.Error()).Should(ContainSubstring("2 errors occurred"))
				Expect(err.Error()).Should(ContainSubstring("appliance.pageSize must be positive"))
				Expect(err.Error()).Should(ContainSubstring("export.maxRecords must be positive"))
			})
		})

		When("the file contains an unknown key", func() {
			It("should fail strictly", func() {
				file := helpertest.TempFile(`
appliance:
  url: http://192.168.1.2:8080
nonsense: true
`)

				_, err := NewConfig(file.Name())

				Expect(err).Should(HaveOccurred())
				Expect(err.Error()).Should(ContainSubstring("wrong file structure"))
			})
		})

		When("the file does not exist", func() {
			It("should fail", func() {
				_, err := NewConfig("/does/not/exist.yml")

				Expect(err).Should(HaveOccurred())
				Expect(err.Error()).Should(ContainSubstring("can't read config file"))
			})
		})

		When("a duration has a wrong format", func() {
			It("should fail with a meaningful error", func() {
				file := helpertest.TempFile(`
appliance:
  url: http://192.168.1.2:8080
  timeout: five seconds
`)

				_, err := NewConfig(file.Name())

				Expect(err).Should(HaveOccurred())
			})
		})
	})

	Describe("Duration", func() {
		It("should render a human readable representation", func() {
			var d Duration

			Expect(d.UnmarshalText([]byte("90s"))).Should(Succeed())
			Expect(d.String()).Should(Equal("1 minute 30 seconds"))
			Expect(d.IsAboveZero()).Should(BeTrue())
		})

		It("should report zero as not above zero", func() {
			var d Duration

			Expect(d.IsAboveZero()).Should(BeFalse())
		})
	})
})
