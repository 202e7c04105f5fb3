package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logchase/logchase-go/internal/logfinder"
	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

var (
	// watch flags
	fromStart   bool
	poll        bool
	waitForFile bool
	window      int
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE|DIR",
	Short: "Follow a log file and report patterns as they complete",
	Long: `Follow a growing log file and print a record each time a pattern
completes. Given a directory, the most recently modified *.log or *.txt file
in it is followed.

Examples:
  # Follow new lines of a file
  logchase watch -p patterns.yaml app.log

  # Scan existing content first, then keep following
  logchase watch -p patterns.yaml --from-start app.log

  # Follow the newest log in a directory, polling for changes
  logchase watch -p patterns.yaml --poll ./logs`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	watchCmd.Flags().StringSliceVar(&patternIDs, "ids", nil,
		"Pattern ids to watch for (comma-separated, default all)")
	_ = watchCmd.RegisterFlagCompletionFunc("ids", completePatternIDs)
	watchCmd.Flags().IntVar(&maxSteps, "max-steps", defaultMaxSteps,
		"Maximum search steps per line and pattern (0 = unlimited)")
	watchCmd.Flags().BoolVar(&fromStart, "from-start", false,
		"Read the file from the beginning")
	watchCmd.Flags().BoolVar(&poll, "poll", false,
		"Poll for changes instead of using filesystem notifications")
	watchCmd.Flags().BoolVar(&waitForFile, "wait", false,
		"Wait for the file to be created")
	watchCmd.Flags().IntVar(&window, "window", logchase.DefaultWindow,
		"Number of recent lines kept for matching")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return watchFile(ctx, cmd.OutOrStdout(), args[0])
}

func watchFile(ctx context.Context, out io.Writer, target string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format %q: must be one of jsonl, pretty", format)
	}

	compiled, err := loadPatterns(patternIDs)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)

	path, err := resolveWatchTarget(target)
	if err != nil {
		return err
	}
	logger.Debug("watching", "path", path, "patterns", len(compiled))

	m, err := logchase.NewMatcher(
		logchase.WithMaxSteps(maxSteps),
		logchase.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	w, err := logchase.NewWatcher(path, pattern.Graphs(compiled),
		logchase.WithMatcher(m),
		logchase.WithFromStart(fromStart),
		logchase.WithPolling(poll),
		logchase.WithWaitForFile(waitForFile),
		logchase.WithWindow(window),
		logchase.WithWatchLogger(logger),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	detections, errs, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	return printDetections(ctx, out, compiled, path, detections, errs, logger)
}

// printDetections prints detections until both channels close. Every error
// is logged. The last wait or tail error is returned unless ctx was cancelled.
func printDetections(ctx context.Context, out io.Writer, compiled []pattern.Compiled, path string,
	detections <-chan logchase.Detection, errs <-chan error, logger *slog.Logger) error {
	var fatal error
	for detections != nil || errs != nil {
		select {
		case d, ok := <-detections:
			if !ok {
				detections = nil
				continue
			}
			rec := detectionRecord(compiled[d.GraphIndex], d)
			rec.Path = path
			if err := OutputRecord(format, rec, out); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
			var we *logchase.WatchError
			if errors.As(err, &we) && we.Op != logchase.WatchOpMatch {
				fatal = err
			}
		}
	}
	if fatal != nil && ctx.Err() == nil {
		return fatal
	}
	return nil
}

// resolveWatchTarget returns target itself, or the newest log file in it when
// target is a directory.
func resolveWatchTarget(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		// A missing file is left to the watcher, which may wait for it.
		return target, nil
	}
	return logfinder.FindLatestLogFile(target)
}
