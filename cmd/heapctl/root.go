package main

import (
	"fmt"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	trace    bool
	logLevel string
	logDir   string
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise fixed-buffer heaps",
	Long: `heapctl drives the fixed heap allocator: it replays reference scenarios,
runs randomized allocate/release soaks with invariant checking, builds SAS
tokens using nothing but a small heap, and manages heap image files.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "Dump the heap to stderr after every operation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write logs to dated files in this directory instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging enables the logger when --log-level or FIXEDHEAP_LOG_ALLOC
// asks for it. --log-dir redirects it from stderr to dated files.
func setupLogging(*cobra.Command, []string) error {
	opts := logger.Options{Writer: os.Stderr, LogDir: logDir}
	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		opts.Enabled, opts.Level = true, level
	}
	if logger.AllocLogEnabled() {
		opts.Enabled, opts.Level = true, slog.LevelDebug
	}
	return logger.Init(opts)
}

// heapOptions returns the allocator options implied by the global flags.
func heapOptions() *heap.Options {
	opts := &heap.Options{Logger: logger.L}
	if trace {
		opts.AfterOp = func(op string, h *heap.Heap) {
			fmt.Fprintf(os.Stderr, "-- after %s\n", op)
			if err := h.Dump(os.Stderr); err != nil {
				logger.Warn("dump failed", "err", err)
			}
		}
	}
	return opts
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// dumpVerbose prints the heap lists in verbose mode.
func dumpVerbose(h *heap.Heap) error {
	if !verbose || quiet {
		return nil
	}
	return h.Dump(os.Stdout)
}
