// Package tailer follows a growing text file line by line.
package tailer

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config controls how a file is followed.
type Config struct {
	// FromStart reads existing content before following. When false only
	// lines appended after New are delivered.
	FromStart bool
	// Poll checks the file periodically instead of using filesystem events.
	Poll bool
	// ReOpen reopens the file when it is truncated or recreated.
	ReOpen bool
}

// DefaultConfig follows new lines only and survives rotation.
func DefaultConfig() Config {
	return Config{ReOpen: true}
}

// Tailer delivers lines appended to a file.
type Tailer struct {
	t      *tail.Tail
	lines  chan string
	errs   chan error
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// New starts following path. The file must already exist.
// The tailer stops when ctx is done or Stop is called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	tc := tail.Config{
		Follow:    true,
		ReOpen:    cfg.ReOpen,
		Poll:      cfg.Poll,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if !cfg.FromStart {
		tc.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan string),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go tl.run(ctx)
	return tl, nil
}

// Lines returns the channel of lines without their terminators.
// It is closed when the tailer stops.
func (tl *Tailer) Lines() <-chan string {
	return tl.lines
}

// Errors returns read errors. It is closed when the tailer stops.
func (tl *Tailer) Errors() <-chan error {
	return tl.errs
}

// Stop ends following and waits for the delivery goroutine to exit.
func (tl *Tailer) Stop() error {
	var err error
	tl.once.Do(func() {
		tl.cancel()
		err = tl.t.Stop()
		tl.t.Cleanup()
	})
	<-tl.done
	return err
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.lines)
	defer close(tl.errs)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				select {
				case tl.errs <- line.Err:
				case <-ctx.Done():
					return
				default:
				}
				continue
			}
			select {
			case tl.lines <- strings.TrimSuffix(line.Text, "\r"):
			case <-ctx.Done():
				return
			}
		}
	}
}
