package logchase

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/logchase/logchase-go/internal/recache"
)

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MatchOption configures a Matcher using the functional options pattern.
type MatchOption func(*matchConfig)

// matchConfig holds internal configuration for the matcher.
type matchConfig struct {
	timestamp TimestampFunc
	maxSteps  int // 0 = unlimited
	cacheSize int
	logger    *slog.Logger
}

// defaultMatchConfig returns a matchConfig with sensible defaults.
func defaultMatchConfig() *matchConfig {
	return &matchConfig{
		timestamp: DefaultTimestamp,
		cacheSize: recache.DefaultSize,
	}
}

func applyMatchOptions(opts []MatchOption) *matchConfig {
	cfg := defaultMatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *matchConfig) validate() error {
	if c.timestamp == nil {
		return fmt.Errorf("timestamp function must not be nil")
	}
	if c.maxSteps < 0 {
		return fmt.Errorf("max steps must be non-negative, got %d", c.maxSteps)
	}
	if c.cacheSize < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.cacheSize)
	}
	return nil
}

// WithTimestampFunc replaces DefaultTimestamp.
func WithTimestampFunc(fn TimestampFunc) MatchOption {
	return func(c *matchConfig) {
		c.timestamp = fn
	}
}

// WithMaxSteps bounds the number of search states a single match may pop.
// When exceeded the match fails with ErrSearchBudgetExceeded instead of
// returning false. Default: 0 (unlimited).
func WithMaxSteps(n int) MatchOption {
	return func(c *matchConfig) {
		c.maxSteps = n
	}
}

// WithCacheSize sets how many substituted expressions stay compiled.
// 0 uses the default (256).
func WithCacheSize(n int) MatchOption {
	return func(c *matchConfig) {
		c.cacheSize = n
	}
}

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) MatchOption {
	return func(c *matchConfig) {
		c.logger = logger
	}
}

// BatchOption configures Matcher.Execute.
type BatchOption func(*batchConfig)

type batchConfig struct {
	concurrency  int
	maxFileBytes int64
}

func defaultBatchConfig() *batchConfig {
	return &batchConfig{
		concurrency:  runtime.GOMAXPROCS(0),
		maxFileBytes: DefaultMaxFileBytes,
	}
}

func applyBatchOptions(opts []BatchOption) *batchConfig {
	cfg := defaultBatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *batchConfig) validate() error {
	if c.concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.concurrency)
	}
	if c.maxFileBytes < 0 {
		return fmt.Errorf("max file bytes must be non-negative, got %d", c.maxFileBytes)
	}
	return nil
}

// WithConcurrency sets how many files are matched at once.
// Default: runtime.GOMAXPROCS(0).
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		c.concurrency = n
	}
}

// WithMaxFileBytes rejects input files larger than n bytes.
// Default is 256MB. Set to 0 for unlimited (not recommended).
func WithMaxFileBytes(n int64) BatchOption {
	return func(c *batchConfig) {
		c.maxFileBytes = n
	}
}

// WatchOption configures a Watcher.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	matcher   *Matcher
	window    int
	fromStart bool
	poll      bool
	wait      bool
	logger    *slog.Logger
	waitEvery time.Duration
}

// DefaultWindow is the default number of lines a Watcher keeps.
const DefaultWindow = 10000

func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		window:    DefaultWindow,
		waitEvery: 2 * time.Second,
	}
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *watchConfig) validate() error {
	if c.window <= 0 {
		return fmt.Errorf("window must be positive, got %d", c.window)
	}
	if c.waitEvery <= 0 {
		return fmt.Errorf("retry interval must be positive, got %v", c.waitEvery)
	}
	return nil
}

// WithWindow sets how many of the most recent lines the watcher keeps.
// Occurrences longer than the window cannot be detected.
// Default: 10000.
func WithWindow(lines int) WatchOption {
	return func(c *watchConfig) {
		c.window = lines
	}
}

// WithFromStart makes the watcher read the file from the beginning instead
// of only new lines.
func WithFromStart(fromStart bool) WatchOption {
	return func(c *watchConfig) {
		c.fromStart = fromStart
	}
}

// WithPolling makes the watcher poll the file instead of relying on
// filesystem notifications (useful on network filesystems).
func WithPolling(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.poll = poll
	}
}

// WithWaitForFile makes the watcher wait for a missing file to appear
// instead of failing.
func WithWaitForFile(wait bool) WatchOption {
	return func(c *watchConfig) {
		c.wait = wait
	}
}

// WithRetryInterval sets how often a waiting watcher checks for the file.
// Default: 2 seconds.
func WithRetryInterval(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.waitEvery = d
	}
}

// WithMatcher sets the matcher the watcher runs graphs with.
// Default: a matcher with default options.
func WithMatcher(m *Matcher) WatchOption {
	return func(c *watchConfig) {
		c.matcher = m
	}
}

// WithWatchLogger sets a logger for watcher debug output.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}
