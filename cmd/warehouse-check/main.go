// Command warehouse-check loads the configured warehouse snapshot into a fresh
// vault, audits the custody invariants and reports skipped save-file entries.
// The snapshot is never written back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"samplevault/internal/core"
	"samplevault/internal/logging"
)

var (
	exitFunc  = os.Exit
	openStore = core.OpenSnapshotStore
)

// describer is implemented by snapshot stores that keep the save file as a
// blob document.
type describer interface {
	Describe(ctx context.Context) (desc string, found bool, err error)
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("warehouse-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		strict   bool
		format   string
		level    string
		deadline time.Duration
	)
	fs.BoolVar(&strict, "strict", false, "fail when the save file contained skipped items")
	fs.StringVar(&format, "log-format", "text", "log format: text|json")
	fs.StringVar(&level, "log-level", "info", "log level: debug|info|warn|error")
	fs.DurationVar(&deadline, "timeout", 30*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := logging.New(logging.Config{Level: level, Format: format, Output: stderr, Component: "warehouse-check"})
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	report, res, err := run(ctx, log, stdout)
	if err != nil {
		var rv core.RuleViolationError
		if !errors.As(err, &rv) {
			log.Error("check failed", "error", err)
			return 1
		}
	}

	_, _ = fmt.Fprintf(stdout, "warehouse: capacity=%d loaded=%d skipped=%d found=%t\n",
		report.Capacity, report.Loaded, report.Skipped(), report.Found)
	printSkipped(stdout, "duplicate", report.Duplicate)
	printSkipped(stdout, "overflow", report.Overflow)
	printSkipped(stdout, "invalid", report.Invalid)
	for _, v := range res.Violations {
		_, _ = fmt.Fprintf(stdout, "%s [%s] %s\n", v.Severity, v.Rule, v.Message)
	}

	switch {
	case res.HasBlocking():
		log.Error("custody audit failed", "violations", len(res.Violations))
		return 1
	case strict && report.Skipped() > 0:
		log.Warn("save file contained skipped items", "skipped", report.Skipped())
		return 1
	}
	log.Info("custody audit passed", "violations", len(res.Violations))
	return 0
}

func run(ctx context.Context, log logging.Logger, stdout io.Writer) (core.LoadReport, core.Result, error) {
	cfg, err := core.ConfigFromEnv()
	if err != nil {
		return core.LoadReport{}, core.Result{}, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return core.LoadReport{}, core.Result{}, fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("close snapshot store", "error", cerr)
		}
	}()

	if d, ok := store.(describer); ok {
		desc, _, err := d.Describe(ctx)
		if err != nil {
			return core.LoadReport{}, core.Result{}, err
		}
		_, _ = fmt.Fprintf(stdout, "save file: %s\n", desc)
	}

	v, report, err := core.Open(ctx, cfg, core.WithSnapshotStore(store), core.WithLogger(log))
	if err != nil {
		return core.LoadReport{}, core.Result{}, err
	}
	res, err := v.Verify(ctx)
	return report, res, err
}

func printSkipped(w io.Writer, reason string, ids []string) {
	for _, id := range ids {
		_, _ = fmt.Fprintf(w, "skipped %s: %q\n", reason, id)
	}
}
