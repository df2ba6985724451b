package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reporter defines a generic interface for benchmark result reporters.
type Reporter interface {
	Generate(results *BenchmarkResults) error
}

// NewReporter returns a Reporter based on the output format in the config,
// along with the writer used for output, which the caller must close.
func NewReporter(cfg *Config) (Reporter, io.WriteCloser, error) {
	var writer io.WriteCloser = os.Stdout

	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file %s: %w", cfg.OutputFile, err)
		}
		writer = f
	}

	switch strings.ToLower(cfg.OutputFormat) {
	case "json":
		return &JSONReporter{writer: writer}, writer, nil
	case "text":
		return &TextReporter{writer: writer}, writer, nil
	default:
		if writer != os.Stdout {
			writer.Close()
		}
		return nil, nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
}

// TextReporter generates a human-readable tabular report.
type TextReporter struct {
	writer io.Writer
}

// Generate writes a formatted benchmark report to the configured output.
func (r *TextReporter) Generate(results *BenchmarkResults) error {
	w := tabwriter.NewWriter(r.writer, 0, 0, 3, ' ', 0)
	p := func(format string, a ...any) {
		fmt.Fprintf(w, format+"\n", a...)
	}

	titleCase := cases.Title(language.English)

	p("lockd benchmark report")
	p("=======================")
	p("Generated:\t%s", time.Now().Format(time.RFC1123))
	p("Target:\t%s", results.Config.Address())
	p("Lock Type:\t%s", titleCase.String(results.Config.LockTypeName))
	p("Test Duration:\t%s", results.TotalDuration)
	p("Contention Level:\t%s", titleCase.String(results.ContentionLevel))
	p("Workers x Keys:\t%d x %d", results.Config.Workers, results.Config.KeySpace)
	p("")

	r.printLatency(p, "Lock Acquisition", results.AcquireLatency)
	r.printLatency(p, "Lock Release", results.ReleaseLatency)

	p("Total Operations:\t%d", results.TotalOperations)
	p("")

	return w.Flush()
}

func (r *TextReporter) printLatency(p func(string, ...any), label string, s LatencyStats) {
	p("%s", label)
	p(strings.Repeat("-", len(label)))
	p("Count:\t%d", s.Count)
	p("Success Rate:\t%.2f%%", s.SuccessRate)
	p("Mean:\t%s", s.Mean)
	p("P50 / P90 / P95 / P99:\t%s / %s / %s / %s", s.Median, s.P90, s.P95, s.P99)
	p("Min / Max:\t%s / %s", s.Min, s.Max)
	p("Std Dev:\t%s", s.StdDev)
	p("Throughput:\t%.2f ops/sec", s.ThroughputOpsPerSec)
	if s.AverageRetries > 0 {
		p("Avg Retries:\t%.2f", s.AverageRetries)
	}
	p("")
}

// JSONReporter outputs results as indented JSON.
type JSONReporter struct {
	writer io.Writer
}

// Generate writes benchmark results in formatted JSON.
func (r *JSONReporter) Generate(results *BenchmarkResults) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
