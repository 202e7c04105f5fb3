// Command logchase finds multi-line patterns in log files.
package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

// envPatterns names the environment variable that supplies the default
// pattern file.
const envPatterns = "LOGCHASE_PATTERNS"

var errNoPatterns = errors.New("no pattern file: use --patterns or set " + envPatterns)

var (
	// global flags
	verbose      bool
	patternsPath string
)

var rootCmd = &cobra.Command{
	Use:   "logchase",
	Short: "Find multi-line patterns in log files",
	Long: `logchase searches log files for sequences of lines described in a
YAML pattern file. Steps can skip lines, capture text for later steps, and
require lines to fall within a time window of an earlier match.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&patternsPath, "patterns", "p", os.Getenv(envPatterns),
		"Pattern file (default $"+envPatterns+")")
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadPatterns compiles the pattern file and keeps the patterns named in ids,
// or all of them when ids is empty.
func loadPatterns(ids []string) ([]pattern.Compiled, error) {
	if patternsPath == "" {
		return nil, errNoPatterns
	}
	all, err := pattern.CompileFile(patternsPath)
	if err != nil {
		return nil, err
	}
	return pattern.Select(all, ids)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
