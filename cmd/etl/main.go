package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"invoiceetl/internal/config"
	"invoiceetl/internal/metrics"
	"invoiceetl/internal/metrics/datadog"
	"invoiceetl/internal/metrics/prompush"
	"invoiceetl/internal/pipeline"
)

// main is the entry point for the consolidation binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes one run.
func main() {
	var (
		cfgPath  string
		srcDir   string
		outDir   string
		validate bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path")
	flag.StringVar(&srcDir, "dir", "", "input directory (overrides source.dir from the config)")
	flag.StringVar(&outDir, "out", "", "output directory (overrides output.dir from the config)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if srcDir != "" {
		p.Source.Dir = srcDir
	}
	if outDir != "" {
		p.Output.Dir = outDir
	}

	issues := config.Validate(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	initMetrics(p, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: job=%s source=%s output=%s storage=%s workers=%d",
			p.Job, p.Source.Dir, p.Output.Dir, p.Storage.Kind, p.Runtime.NormalizeWorkers)
	}

	if err := pipeline.Run(ctx, p); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// initMetrics installs the configured metrics backend, falling back to the
// nop backend when initialization fails.
func initMetrics(p config.Pipeline, verbose bool) {
	switch p.Metrics.Backend {
	case "pushgateway":
		gwURL := p.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%v job=%v", gwURL, p.Job)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      p.Metrics.StatsdAddr,
			Namespace: "invoiceetl.",
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%v job=%v", p.Metrics.StatsdAddr, p.Job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", p.Metrics.Backend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
