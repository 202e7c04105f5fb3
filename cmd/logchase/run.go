package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/logchase/logchase-go/internal/logfinder"
	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

// defaultMaxSteps bounds a single search when the CLI runs untrusted input.
const defaultMaxSteps = 1_000_000

var (
	// run flags
	format      string
	patternIDs  []string
	maxSteps    int
	concurrency int
	showAll     bool
)

var runCmd = &cobra.Command{
	Use:   "run [file|dir|glob]...",
	Short: "Search log files for patterns",
	Long: `Search log files for every pattern in the pattern file.

Inputs may be files, directories (their *.log and *.txt files) or glob
patterns. Each file is read once and searched for every pattern. Results are
printed as JSON Lines by default.

Examples:
  # Search one file
  logchase run -p patterns.yaml app.log

  # Search every log in a directory for two patterns
  logchase run -p patterns.yaml --ids gray_screen,dog_color ./logs

  # Globs cross directories
  logchase run -p patterns.yaml 'logs/**/*.log'

  # Show non-matching pairs too
  logchase run -p patterns.yaml --all --format pretty ./logs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	runCmd.Flags().StringSliceVar(&patternIDs, "ids", nil,
		"Pattern ids to search for (comma-separated, default all)")
	_ = runCmd.RegisterFlagCompletionFunc("ids", completePatternIDs)
	runCmd.Flags().IntVar(&maxSteps, "max-steps", defaultMaxSteps,
		"Maximum search steps per file and pattern (0 = unlimited)")
	runCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0,
		"Files searched in parallel (0 = number of CPUs)")
	runCmd.Flags().BoolVar(&showAll, "all", false,
		"Print a record for every file and pattern, not only matches")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runSearch(ctx, cmd.OutOrStdout(), args)
}

func runSearch(ctx context.Context, out io.Writer, inputs []string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format %q: must be one of jsonl, pretty", format)
	}

	compiled, err := loadPatterns(patternIDs)
	if err != nil {
		return err
	}
	paths, err := logfinder.Expand(inputs)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr)
	m, err := logchase.NewMatcher(
		logchase.WithMaxSteps(maxSteps),
		logchase.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var opts []logchase.BatchOption
	if concurrency > 0 {
		opts = append(opts, logchase.WithConcurrency(concurrency))
	}

	runID := uuid.NewString()
	logger.Debug("starting run", "run_id", runID, "files", len(paths), "patterns", len(compiled))

	results, err := m.Execute(ctx, paths, pattern.Graphs(compiled), opts...)
	if err != nil {
		return err
	}

	failed := 0
	for _, br := range results {
		rec := newRecord(compiled[br.GraphIndex], br.Result)
		rec.RunID = runID
		rec.Path = br.Path
		if br.Err != nil {
			failed++
			rec.Error = br.Err.Error()
			logger.Warn("search failed", "path", br.Path, "pattern", rec.Pattern, "error", br.Err)
		}
		if !rec.Matched && rec.Error == "" && !showAll {
			continue
		}
		if err := OutputRecord(format, rec, out); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d searches failed", failed, len(results))
	}
	return nil
}
