// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a decoded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Pipeline without mutating it.
// Callers decide whether to treat warnings as fatal.
func Validate(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{SeverityError, "job", "job must not be empty; it labels metrics and storage tables"})
	}
	if strings.TrimSpace(p.Source.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "source.dir", "input directory is required"})
	}
	if strings.TrimSpace(p.Output.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "output.dir", "output directory is required"})
	}
	if p.Runtime.NormalizeWorkers < 1 {
		issues = append(issues, Issue{SeverityError, "runtime.normalize_workers", "must be >= 1"})
	}

	switch p.Storage.Kind {
	case "none":
	case "sqlite", "postgres", "mssql":
		if strings.TrimSpace(p.Storage.DB.DSN) == "" {
			issues = append(issues, Issue{SeverityError, "storage.db.dsn", "dsn is required for storage kind " + p.Storage.Kind})
		}
		if p.Storage.DB.BatchSize < 1 {
			issues = append(issues, Issue{SeverityError, "storage.db.batch_size", "must be >= 1"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "storage.kind", fmt.Sprintf("unknown storage kind %q", p.Storage.Kind)})
	}

	switch p.Metrics.Backend {
	case "none":
	case "pushgateway":
		if strings.TrimSpace(p.Metrics.PushgatewayURL) == "" {
			issues = append(issues, Issue{SeverityWarning, "metrics.pushgateway_url", "empty URL; the default http://localhost:9091 will be used"})
		}
	case "datadog":
		if strings.TrimSpace(p.Metrics.StatsdAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.statsd_addr", "statsd address is required for the datadog backend"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", p.Metrics.Backend)})
	}

	return issues
}
