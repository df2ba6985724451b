// Command benchmark drives concurrent lock traffic against a lockd server
// and reports acquisition/release latency distributions.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jathurchan/lockd/logger"
)

const (
	exitSuccess     = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("received interrupt, shutting down benchmark")
		cancel()
	}()

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		log.Printf("configuration error: %v", err)
		os.Exit(exitFailure)
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(exitFailure)
	}

	lg := logger.NewNoOpLogger()

	suite, err := newBenchmarkSuite(ctx, cfg, lg)
	if err != nil {
		log.Printf("failed to connect to %s: %v", cfg.Address(), err)
		os.Exit(exitFailure)
	}
	defer suite.cleanup()

	log.Printf("running benchmark against %s", cfg)

	results, err := suite.run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("benchmark canceled")
			os.Exit(exitInterrupted)
		}
		log.Printf("benchmark failed: %v", err)
		os.Exit(exitFailure)
	}

	reporter, writer, err := NewReporter(cfg)
	if err != nil {
		log.Printf("failed to create reporter: %v", err)
		os.Exit(exitFailure)
	}
	defer writer.Close()

	if err := reporter.Generate(results); err != nil {
		log.Printf("failed to generate report: %v", err)
		os.Exit(exitFailure)
	}

	os.Exit(exitSuccess)
}
