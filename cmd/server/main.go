// Command server runs the lockd TCP lock service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/server"
)

// appConfig holds the parsed command-line configuration for the server binary.
type appConfig struct {
	Port            int
	Backlog         int
	LogLevel        string
	ShutdownTimeout time.Duration
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	log := createLogger(cfg.LogLevel)

	srv, err := buildServer(cfg, log)
	if err != nil {
		log.Errorw("failed to build server", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		log.Errorw("failed to start server", "error", err, "port", cfg.Port)
		return 1
	}
	log.Infow("lockd server listening", "address", srv.Addr().String(), "backlog", cfg.Backlog)

	waitForShutdown(log)

	log.Infow("shutdown signal received, draining connections")
	if err := gracefulShutdown(srv, cfg.ShutdownTimeout, log); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
		return 1
	}

	log.Infow("server stopped cleanly")
	return 0
}

// parseFlags parses args into an appConfig using a fresh FlagSet, so it can be
// called repeatedly (e.g. from tests) without global flag-registration conflicts.
func parseFlags(args []string) (*appConfig, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)

	port := fs.Int("port", 40417, "TCP port to listen on")
	backlog := fs.Int("backlog", 1024, "maximum pending connection backlog")
	logLevel := fs.String("log-level", "info", "minimum log level (debug, info, warn, error, fatal)")
	shutdownTimeout := fs.Duration(
		"shutdown-timeout",
		server.DefaultShutdownTimeout,
		"grace period for in-flight connections on shutdown",
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &appConfig{
		Port:            *port,
		Backlog:         *backlog,
		LogLevel:        *logLevel,
		ShutdownTimeout: *shutdownTimeout,
	}, nil
}

func createLogger(level string) logger.Logger {
	return logger.NewStdLogger(level)
}

func buildServer(cfg *appConfig, log logger.Logger) (*server.Server, error) {
	return server.NewBuilder().
		WithListenAddress(fmt.Sprintf("0.0.0.0:%d", cfg.Port)).
		WithBacklog(cfg.Backlog).
		WithShutdownTimeout(cfg.ShutdownTimeout).
		WithLogger(log).
		Build()
}

func waitForShutdown(log logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func gracefulShutdown(srv *server.Server, timeout time.Duration, log logger.Logger) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}
