// Package config loads service configuration from the environment, with an
// optional YAML file providing defaults for deployments where environment
// injection is awkward.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs to talk to the warehouse and
// serve reviewers. The core never reads these directly; connection setup and
// table naming are wired in at the edges.
type Config struct {
	HTTPAddr string

	ProjectID string
	DatasetID string

	Bucket string // GCS bucket for archived CSV uploads; empty disables uploads

	DefaultTable string

	QueueSize int
	Workers   int
}

type fileConfig struct {
	HTTPAddr     string `yaml:"http_addr"`
	ProjectID    string `yaml:"project_id"`
	DatasetID    string `yaml:"dataset_id"`
	Bucket       string `yaml:"bucket"`
	DefaultTable string `yaml:"default_table"`
	QueueSize    *int   `yaml:"queue_size"`
	Workers      *int   `yaml:"workers"`
}

const (
	defaultHTTPAddr  = ":8080"
	defaultProjectID = "real-estate-alerter"
	defaultDatasetID = "real_estate_alerter_output"
	defaultTable     = "newsworthy"
	defaultQueueSize = 100
	defaultWorkers   = 2
)

// Load builds the configuration. Precedence: environment variables override
// the YAML file named by ALERTER_CONFIG, which overrides built-in defaults.
func Load() (Config, error) {
	c := Config{
		HTTPAddr:     defaultHTTPAddr,
		ProjectID:    defaultProjectID,
		DatasetID:    defaultDatasetID,
		DefaultTable: defaultTable,
		QueueSize:    defaultQueueSize,
		Workers:      defaultWorkers,
	}

	if path := os.Getenv("ALERTER_CONFIG"); path != "" {
		if err := c.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	c.HTTPAddr = env("ALERTER_HTTP_ADDR", c.HTTPAddr)
	c.ProjectID = env("ALERTER_PROJECT_ID", c.ProjectID)
	c.DatasetID = env("ALERTER_DATASET_ID", c.DatasetID)
	c.Bucket = env("ALERTER_GCS_BUCKET", c.Bucket)
	c.DefaultTable = env("ALERTER_DEFAULT_TABLE", c.DefaultTable)
	c.QueueSize = envInt("ALERTER_QUEUE_SIZE", c.QueueSize)
	c.Workers = envInt("ALERTER_WORKERS", c.Workers)

	if c.QueueSize < 1 {
		c.QueueSize = defaultQueueSize
	}
	if c.Workers < 1 {
		c.Workers = defaultWorkers
	}

	return c, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if fc.HTTPAddr != "" {
		c.HTTPAddr = fc.HTTPAddr
	}
	if fc.ProjectID != "" {
		c.ProjectID = fc.ProjectID
	}
	if fc.DatasetID != "" {
		c.DatasetID = fc.DatasetID
	}
	if fc.Bucket != "" {
		c.Bucket = fc.Bucket
	}
	if fc.DefaultTable != "" {
		c.DefaultTable = fc.DefaultTable
	}
	if fc.QueueSize != nil {
		c.QueueSize = *fc.QueueSize
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
