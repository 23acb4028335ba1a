// Package watch re-runs the cleaner whenever a dump lands in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc cleans the dump at path.
type RunFunc func(ctx context.Context, path string) error

// Options configures the watch behaviour.
type Options struct {
	// Dir is the directory the dump is dropped into.
	Dir string

	// FileName is the dump's base name; events on other files are ignored.
	FileName string

	// Debounce is the quiet period before a run is triggered.
	Debounce time.Duration

	Logger *slog.Logger

	// Out receives user-facing status lines.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Dir:      ".",
		FileName: "input.sql",
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run watches opts.Dir and calls runFn for opts.FileName after every burst
// of writes. It blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.FileName == "" {
		return errors.New("watch: file name is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.Dir); err != nil {
		return fmt.Errorf("watching directory %q: %w", opts.Dir, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := filepath.Join(opts.Dir, opts.FileName)
	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", target, opts.Debounce)

	// Runs never overlap: a run that deletes its source must finish before
	// the next one looks at the file.
	var (
		runMu   sync.Mutex
		stopped bool
	)
	run := func(trigger string) {
		runMu.Lock()
		defer runMu.Unlock()
		if stopped {
			return
		}
		doRun(sigCtx, opts, runFn, target, trigger)
	}

	// Run does not return while a debounced run is still in flight.
	defer func() {
		runMu.Lock()
		stopped = true
		runMu.Unlock()
	}()

	if _, err := os.Stat(target); err == nil {
		run("(initial)")
	}

	debouncer := NewDebouncer(opts.Debounce, func(string) { run(target) })
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, opts.FileName) {
				continue
			}

			opts.Logger.Debug("dump changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun executes a single clean and prints the status line.
func doRun(ctx context.Context, opts Options, runFn RunFunc, path, trigger string) {
	if ctx.Err() != nil {
		return
	}

	now := time.Now().Format("15:04:05")

	// The file may have been consumed by a previous run.
	if _, err := os.Stat(path); err != nil {
		opts.Logger.Debug("dump gone before run", slog.String("path", path))
		return
	}

	if err := runFn(ctx, path); err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → OK\n", now, trigger)
}

// isRelevant keeps writes and creations of the watched file only.
func isRelevant(event fsnotify.Event, fileName string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	return filepath.Base(event.Name) == fileName
}
