// Package main provides the webeval command line: it opens browser sessions
// for web agents and inspects the trajectories those agents leave behind.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/entrhq/webeval/pkg/config"
	"github.com/entrhq/webeval/pkg/logging"
)

const version = "0.1.0"

var errUsage = errors.New("usage error")

// command is one webeval subcommand
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{name: "browse", summary: "Open a browser session and visit the start page", run: runBrowse},
	{name: "inspect", summary: "Print one trajectory", run: runInspect},
	{name: "batch", summary: "Load every trajectory under a directory and report on them", run: runBatch},
	{name: "index", summary: "Query the Redis trajectory index", run: runIndex},
	{name: "view", summary: "Step through a trajectory in the terminal", run: runView},
	{name: "export", summary: "Write a trajectory's screenshots to a PDF", run: runExport},
}

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("cli")
	if err != nil {
		debugLog.Warnf("Failed to initialize cli logger, using stderr fallback: %v", err)
	}
}

func main() {
	var (
		configFile  string
		showVersion bool
	)
	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML)")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("webeval v%s\n", version)
		return
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// A missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyLogging(); err != nil {
		log.Fatalf("Failed to apply logging configuration: %v", err)
	}

	cmd, ok := findCommand(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	debugLog.Infof("Running %s (run %s)", cmd.name, logging.GetRunID())
	err = cmd.run(ctx, cfg, flag.Args()[1:])
	cancel()

	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		debugLog.Errorf("%s failed: %v", cmd.name, err)
		log.Printf("%s failed: %v", cmd.name, err)
		os.Exit(1)
	}
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintf(os.Stderr, "webeval - browser sessions and trajectory tools for web agents\n\n")
	fmt.Fprintf(os.Stderr, "Usage: webeval [options] <command> [command options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Open a headed browser and keep it until Ctrl+C\n")
	fmt.Fprintf(os.Stderr, "  webeval browse -headed\n\n")
	fmt.Fprintf(os.Stderr, "  # Summarize a results directory and index it in Redis\n")
	fmt.Fprintf(os.Stderr, "  WEBEVAL_REDIS_ADDR=localhost:6379 webeval batch -index ./runs\n\n")
	fmt.Fprintf(os.Stderr, "  # Replay one trajectory\n")
	fmt.Fprintf(os.Stderr, "  webeval view ./runs/task-17\n\n")
}

// newFlagSet returns a flag set for a subcommand that reports errors
// instead of exiting.
func newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: webeval %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// singleDir returns the one positional directory argument.
func singleDir(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}
