package logchase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/logchase/logchase-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
const watcherErrBuffer = 16

// Detection reports one occurrence of a graph found by a Watcher.
type Detection struct {
	GraphIndex int
	Graph      *Graph
	// Offset is the absolute index of the first line the search covered.
	// Line indexes in Result are relative to it.
	Offset int
	Result Result
}

// Start returns the absolute index of the first line of the occurrence.
func (d Detection) Start() int {
	return d.Offset + d.Result.Start()
}

// End returns the absolute index of the line after the occurrence.
func (d Detection) End() int {
	return d.Offset + d.Result.End
}

// Watcher follows a growing log file and reports graph occurrences as the
// lines that complete them are written.
//
// After each new line every graph is searched over the lines since its
// previous detection, limited to the configured window. A detected
// occurrence is reported once; the next search for that graph starts after
// the line that completed it.
type Watcher struct {
	cfg    watchConfig
	path   string
	graphs []*Graph
	m      *Matcher
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// NewWatcher creates a watcher for path. It does not start goroutines.
func NewWatcher(path string, graphs []*Graph, opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if path == "" {
		return nil, errors.New("watch path must not be empty")
	}
	if len(graphs) == 0 {
		return nil, errors.New("at least one graph is required")
	}
	for i, g := range graphs {
		if g == nil {
			return nil, fmt.Errorf("graph %d is nil", i)
		}
	}

	m := cfg.matcher
	if m == nil {
		m = defaultMatcher
	}
	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Watcher{
		cfg:    *cfg,
		path:   path,
		graphs: append([]*Graph(nil), graphs...),
		m:      m,
		log:    log,
	}, nil
}

// Watch starts watching and returns channels. Both channels are closed when
// ctx is done, the watcher is closed, or a fatal error occurs.
// Watch can only be called once per Watcher.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Detection, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	detCh := make(chan Detection)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, detCh, errCh)

	return detCh, errCh, nil
}

// Close stops the watcher and waits for its goroutine to exit.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, detCh chan<- Detection, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(detCh)
	defer close(errCh)

	if err := w.waitForFile(ctx); err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpWait, Path: w.path, Err: err})
		return
	}

	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.fromStart
	cfg.Poll = w.cfg.poll
	t, err := tailer.New(ctx, w.path, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.path, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Debug("started tailing", "path", w.path, "from_start", cfg.FromStart, "graphs", len(w.graphs))

	s := newScanState(len(w.graphs), w.cfg.window)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			s.push(line)
			if !w.processLine(ctx, s, detCh, errCh) {
				return
			}
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: w.path, Err: err})
		}
	}
}

// waitForFile returns once path exists, or immediately when waiting is
// disabled.
func (w *Watcher) waitForFile(ctx context.Context) error {
	_, err := os.Stat(w.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) || !w.cfg.wait {
		return err
	}

	w.log.Debug("file not found, waiting for it to appear", "path", w.path, "interval", w.cfg.waitEvery)
	ticker := time.NewTicker(w.cfg.waitEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, err := os.Stat(w.path)
			if err == nil {
				w.log.Debug("file appeared", "path", w.path)
				return nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
}

// processLine searches every graph after a new line. It returns false when
// ctx is done.
func (w *Watcher) processLine(ctx context.Context, s *scanState, detCh chan<- Detection, errCh chan<- error) bool {
	for i, g := range w.graphs {
		src, offset := s.since(i)
		res, err := w.m.Find(ctx, src, g)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpMatch, Path: w.path, Graph: g.Description(), Err: err})
			continue
		}
		if !res.Matched {
			continue
		}

		det := Detection{GraphIndex: i, Graph: g, Offset: offset, Result: res}
		w.log.Debug("pattern detected", "graph", g.Description(), "start", det.Start(), "end", det.End())
		s.advance(i)

		select {
		case detCh <- det:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// scanState holds the line window and each graph's search start.
type scanState struct {
	buf     []string
	base    int // absolute index of buf[0]
	max     int
	offsets []int // absolute index each graph's next search starts at
}

func newScanState(graphs, window int) *scanState {
	return &scanState{max: window, offsets: make([]int, graphs)}
}

func (s *scanState) push(line string) {
	s.buf = append(s.buf, line)
	if over := len(s.buf) - s.max; over > 0 {
		s.base += over
		s.buf = s.buf[over:]
	}
}

// since returns the lines graph i has not yet consumed and the absolute
// index of the first of them.
func (s *scanState) since(i int) (LineSource, int) {
	if s.offsets[i] < s.base {
		s.offsets[i] = s.base
	}
	return window{src: Lines(s.buf), offset: s.offsets[i] - s.base}, s.offsets[i]
}

// advance moves graph i past every line seen so far.
func (s *scanState) advance(i int) {
	s.offsets[i] = s.base + len(s.buf)
}

// sendError sends an error without blocking. Errors are dropped only when
// the buffer is full.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}
