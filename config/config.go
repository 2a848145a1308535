package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/dnsboard/dnsboard/log"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"
)

// ApplianceConfig holds the connection parameters for the upstream filtering
// appliance API
type ApplianceConfig struct {
	URL           string   `yaml:"url"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	Timeout       Duration `yaml:"timeout" default:"5s"`
	RetryAttempts uint     `yaml:"retryAttempts" default:"3"`
	RetryCooldown Duration `yaml:"retryCooldown" default:"500ms"`
	PageSize      int      `yaml:"pageSize" default:"500"`
}

// ExportConfig configures the export pipeline
type ExportConfig struct {
	Directory  string `yaml:"directory" default:"./exports"`
	Database   string `yaml:"database" default:"./exports/jobs.db"`
	MaxRecords int    `yaml:"maxRecords" default:"10000"`
	Workers    int    `yaml:"workers" default:"2"`
}

// PrometheusConfig configures the metrics endpoint
type PrometheusConfig struct {
	Enable bool   `yaml:"enable" default:"false"`
	Path   string `yaml:"path" default:"/metrics"`
}

// Config is the whole server configuration
type Config struct {
	Appliance  ApplianceConfig  `yaml:"appliance"`
	Export     ExportConfig     `yaml:"export"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Log        log.Config       `yaml:"log"`
	Host       string           `yaml:"host"`
	Port       uint16           `yaml:"port" default:"4000"`
}

// NewConfig reads the configuration from the passed file
func NewConfig(path string) (Config, error) {
	cfg := Config{}
	if err := defaults.Set(&cfg); err != nil {
		return cfg, fmt.Errorf("can't apply default values: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("can't read config file: %w", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("wrong file structure: %w", err)
	}

	return cfg, cfg.validate()
}

func (cfg *Config) validate() error {
	var result *multierror.Error

	if cfg.Appliance.URL == "" {
		result = multierror.Append(result, fmt.Errorf("appliance.url is required"))
	} else if _, err := url.Parse(cfg.Appliance.URL); err != nil {
		result = multierror.Append(result, fmt.Errorf("appliance.url is invalid: %w", err))
	}

	if cfg.Appliance.PageSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("appliance.pageSize must be positive"))
	}

	if cfg.Export.MaxRecords <= 0 {
		result = multierror.Append(result, fmt.Errorf("export.maxRecords must be positive"))
	}

	if cfg.Export.Workers <= 0 {
		result = multierror.Append(result, fmt.Errorf("export.workers must be positive"))
	}

	return result.ErrorOrNil()
}
