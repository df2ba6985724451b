// Command client is a small CLI exercising the lockd client library:
// trylock, lock, and unlock against a running server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jathurchan/lockd/client"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

var lockTypeNames = map[string]types.LockType{
	"simple":    types.Simple,
	"timeout":   types.Timeout,
	"reentrant": types.Reentrant,
	"readwrite": types.ReadWrite,
}

// cliConfig holds the parsed command-line configuration for the client binary.
type cliConfig struct {
	Host           string
	Port           int
	Application    string
	Thread         string
	LockTypeName   string
	Timeout        time.Duration
	ReadSide       bool
	RequestTimeout time.Duration
	Command        string
	Key            string
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		printUsage()
		return 1
	}

	lt, ok := lockTypeNames[cfg.LockTypeName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown lock type %q\n", cfg.LockTypeName)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	c, err := client.NewBuilder(cfg.Host, cfg.Port).
		WithApplication(cfg.Application).
		WithPoolSize(1).
		Build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		return 1
	}
	defer c.Close()

	resp, err := dispatch(ctx, c, cfg.Command, lt, cfg.Key, cfg.Thread, cfg.Timeout, cfg.ReadSide)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return 1
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "%s %q failed: %s\n", cfg.Command, cfg.Key, resp.Cause)
		return 1
	}
	fmt.Printf("%s %q succeeded\n", cfg.Command, cfg.Key)
	return 0
}

// parseFlags parses args into a cliConfig using a fresh FlagSet, so it can be
// called repeatedly (e.g. from tests) without global flag-registration conflicts.
func parseFlags(args []string) (*cliConfig, error) {
	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)

	host := fs.String("host", "127.0.0.1", "server hostname or IP address")
	port := fs.Int("port", 40417, "server port")
	application := fs.String("application", "lockd-cli", "application label attached to requests")
	thread := fs.String("thread", "cli", "thread/caller label attached to requests")
	lockTypeFlag := fs.String("type", "simple", "lock flavor: simple, timeout, reentrant, readwrite")
	timeout := fs.Duration("timeout", 0, "expiration window for the timeout flavor; ignored otherwise")
	readSide := fs.Bool("read", false, "for readwrite: operate on the read side instead of the write side")
	requestTimeout := fs.Duration("request-timeout", 10*time.Second, "how long to wait for a response")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() < 2 {
		return nil, fmt.Errorf("expected <command> <key> positional arguments, got %d", fs.NArg())
	}

	return &cliConfig{
		Host:           *host,
		Port:           *port,
		Application:    *application,
		Thread:         *thread,
		LockTypeName:   *lockTypeFlag,
		Timeout:        *timeout,
		ReadSide:       *readSide,
		RequestTimeout: *requestTimeout,
		Command:        fs.Arg(0),
		Key:            fs.Arg(1),
	}, nil
}

func dispatch(
	ctx context.Context,
	c *client.Client,
	command string,
	lt types.LockType,
	key, thread string,
	timeout time.Duration,
	readSide bool,
) (wire.Response, error) {
	switch command {
	case "trylock":
		if lt == types.ReadWrite && readSide {
			return c.TryReadLock(ctx, key, thread)
		}
		return c.TryLock(ctx, lt, key, thread)
	case "lock":
		if lt == types.ReadWrite && readSide {
			return c.ReadLock(ctx, key, thread)
		}
		return c.Lock(ctx, lt, key, thread, timeout)
	case "unlock":
		if lt == types.ReadWrite && readSide {
			return c.ReadUnlock(ctx, key, thread)
		}
		return c.Unlock(ctx, lt, key, thread)
	default:
		return wire.Response{}, fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println("usage: client [flags] <trylock|lock|unlock> <key>")
	fmt.Println("\nflags:")
	pflag.PrintDefaults()
}
