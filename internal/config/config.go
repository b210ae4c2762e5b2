// Package config defines the JSON-serializable configuration model for the
// consolidation pipeline. It is intentionally small and typed: pipelines are
// decoded from disk with the standard library and passed through the program
// without additional glue code.
//
// Example:
//
//	{
//	  "job":     "backoffice_reports",
//	  "source":  { "dir": "./exports" },
//	  "output":  { "dir": "." },
//	  "runtime": { "normalize_workers": 4 },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:reports.db" } },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and storage table prefixes.
	Job string `json:"job"`

	// Source locates the input CSV exports.
	Source Source `json:"source"`

	// Output locates the written artifacts and reports.
	Output Output `json:"output"`

	// Runtime controls normalization parallelism.
	Runtime Runtime `json:"runtime"`

	// Storage optionally persists the pipeline artifacts to a database.
	Storage Storage `json:"storage"`

	// Metrics selects an operational metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Source identifies the input directory scanned for clients_*/invoices_* files.
type Source struct {
	Dir string `json:"dir"`
}

// Output controls where artifacts land. Tables go to <dir>/Outputs, reports
// to <dir>/Analysis.
type Output struct {
	Dir string `json:"dir"`
}

// Runtime controls concurrency. Per-file normalization is embarrassingly
// parallel; the merge order stays deterministic regardless of workers.
type Runtime struct {
	NormalizeWorkers int `json:"normalize_workers"`
}

// Storage selects the optional database sink for the three pipeline artifacts.
type Storage struct {
	// Kind is one of "none", "sqlite", "postgres", "mssql". Empty means none.
	Kind string `json:"kind"`

	// DB carries backend connection details.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Schema optionally qualifies table names (e.g. "public", "dbo").
	Schema string `json:"schema"`

	// BatchSize bounds rows per insert batch; defaults applied by the sink.
	BatchSize int `json:"batch_size"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is one of "none", "pushgateway", "datadog". Empty means none.
	Backend string `json:"backend"`

	// PushgatewayURL is the Prometheus Pushgateway base URL.
	PushgatewayURL string `json:"pushgateway_url"`

	// StatsdAddr is the DogStatsD address, e.g. "127.0.0.1:8125".
	StatsdAddr string `json:"statsd_addr"`
}

// Load reads and decodes a pipeline file, then applies defaults.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	p.ApplyDefaults()
	return p, nil
}

// ApplyDefaults fills zero values with usable defaults.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = "backoffice_reports"
	}
	if p.Source.Dir == "" {
		p.Source.Dir = "."
	}
	if p.Output.Dir == "" {
		p.Output.Dir = "."
	}
	if p.Runtime.NormalizeWorkers <= 0 {
		p.Runtime.NormalizeWorkers = 4
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = "none"
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
	if p.Storage.DB.BatchSize <= 0 {
		p.Storage.DB.BatchSize = 500
	}
}
