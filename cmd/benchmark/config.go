package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	benchmarkVersion = "v1.0.0"
)

// Config holds all benchmark configuration.
type Config struct {
	// Host and Port address the lockd server under test.
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// LockTypeName selects which flavor the workers exercise: simple, timeout,
	// reentrant, or readwrite.
	LockTypeName string `json:"lock_type" yaml:"lock_type"`

	// Workers is the number of concurrent goroutines issuing lock traffic.
	Workers int `json:"workers" yaml:"workers"`

	// OpsPerWorker is how many acquire/release cycles each worker runs.
	OpsPerWorker int `json:"ops_per_worker" yaml:"ops_per_worker"`

	// KeySpace is the number of distinct keys workers contend over. A
	// KeySpace of 1 maximizes contention; a large KeySpace approximates the
	// uncontested case.
	KeySpace int `json:"key_space" yaml:"key_space"`

	// HoldDuration is how long each worker sleeps while holding the lock,
	// simulating critical-section work and amplifying contention.
	HoldDuration time.Duration `json:"hold_duration" yaml:"hold_duration"`

	// UseTryLock issues non-blocking tryLock attempts with retry-with-backoff
	// instead of blocking Lock calls.
	UseTryLock bool `json:"use_trylock" yaml:"use_trylock"`

	// LockTimeout is the expiration window passed to Lock for the timeout
	// flavor; ignored otherwise.
	LockTimeout time.Duration `json:"lock_timeout" yaml:"lock_timeout"`

	// RequestTimeout bounds each individual client request.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// PoolSize is the connection pool size per client.
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// OutputFormat is "text" or "json".
	OutputFormat string `json:"output_format" yaml:"output_format"`

	// OutputFile is the file path to write output to. Uses stdout if empty.
	OutputFile string `json:"output_file" yaml:"output_file"`
}

// DefaultConfig returns a Config instance with sane default values.
func DefaultConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           40417,
		LockTypeName:   "simple",
		Workers:        20,
		OpsPerWorker:   200,
		KeySpace:       8,
		HoldDuration:   0,
		UseTryLock:     false,
		LockTimeout:    5 * time.Second,
		RequestTimeout: 5 * time.Second,
		PoolSize:       8,
		OutputFormat:   "text",
	}
}

// Validate checks the configuration for obviously unrunnable values.
func (c *Config) Validate() error {
	if c.Host == "" {
		return NewValidationError("host", c.Host, "must not be empty")
	}
	if c.Port <= 0 {
		return NewValidationError("port", c.Port, "must be positive")
	}
	if _, ok := lockTypeNames[c.LockTypeName]; !ok {
		return NewValidationError("lock_type", c.LockTypeName, "must be simple, timeout, reentrant, or readwrite")
	}
	if c.Workers <= 0 {
		return NewValidationError("workers", c.Workers, "must be positive")
	}
	if c.OpsPerWorker <= 0 {
		return NewValidationError("ops_per_worker", c.OpsPerWorker, "must be positive")
	}
	if c.KeySpace <= 0 {
		return NewValidationError("key_space", c.KeySpace, "must be positive")
	}
	switch strings.ToLower(c.OutputFormat) {
	case "text", "json":
	default:
		return NewValidationError("output_format", c.OutputFormat, "must be text or json")
	}
	return nil
}

// parseConfig parses command-line flags into a Config.
func parseConfig(args []string) (*Config, error) {
	def := DefaultConfig()
	fs := pflag.NewFlagSet("benchmark", pflag.ContinueOnError)

	host := fs.String("host", def.Host, "lockd server hostname or IP address")
	port := fs.Int("port", def.Port, "lockd server port")
	lockType := fs.String("type", def.LockTypeName, "lock flavor: simple, timeout, reentrant, readwrite")
	workers := fs.Int("workers", def.Workers, "number of concurrent workers")
	opsPerWorker := fs.Int("ops", def.OpsPerWorker, "acquire/release cycles per worker")
	keySpace := fs.Int("keys", def.KeySpace, "number of distinct keys contended over (1 = maximum contention)")
	holdDuration := fs.Duration("hold", def.HoldDuration, "simulated critical-section duration while holding the lock")
	useTryLock := fs.Bool("trylock", def.UseTryLock, "use non-blocking tryLock with backoff instead of blocking lock")
	lockTimeout := fs.Duration("lock-timeout", def.LockTimeout, "expiration window for the timeout flavor")
	requestTimeout := fs.Duration("request-timeout", def.RequestTimeout, "per-request timeout")
	poolSize := fs.Int("pool-size", def.PoolSize, "client connection pool size")
	outputFormat := fs.String("format", def.OutputFormat, "report format: text or json")
	outputFile := fs.String("output", def.OutputFile, "file to write the report to; stdout if empty")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Config{
		Host:           *host,
		Port:           *port,
		LockTypeName:   *lockType,
		Workers:        *workers,
		OpsPerWorker:   *opsPerWorker,
		KeySpace:       *keySpace,
		HoldDuration:   *holdDuration,
		UseTryLock:     *useTryLock,
		LockTimeout:    *lockTimeout,
		RequestTimeout: *requestTimeout,
		PoolSize:       *poolSize,
		OutputFormat:   *outputFormat,
		OutputFile:     *outputFile,
	}, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"%s:%d type=%s workers=%d ops=%d keys=%d",
		c.Host, c.Port, c.LockTypeName, c.Workers, c.OpsPerWorker, c.KeySpace,
	)
}
