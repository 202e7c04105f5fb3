package logchase

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one (file, graph) pair.
type BatchResult struct {
	Path       string
	GraphIndex int
	Graph      *Graph
	Result     Result
	// Err is set when the file could not be read or the search gave up.
	Err error
}

// Execute runs every graph against every file using default match options.
func Execute(ctx context.Context, paths []string, graphs []*Graph, opts ...BatchOption) ([]BatchResult, error) {
	return defaultMatcher.Execute(ctx, paths, graphs, opts...)
}

// Execute runs every graph against every file. Each file is read once.
// Results are ordered by file, then by graph.
//
// Failures of a single pair are recorded in its BatchResult. The returned
// error is non-nil only for invalid options or when ctx is done.
func (m *Matcher) Execute(ctx context.Context, paths []string, graphs []*Graph, opts ...BatchOption) ([]BatchResult, error) {
	cfg := applyBatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(paths)*len(graphs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.concurrency)

	for i, path := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			lines, readErr := openFile(path, cfg.maxFileBytes)
			if readErr != nil {
				m.logger.Debug("skipping unreadable file", "path", path, "error", readErr)
			}
			for j, g := range graphs {
				r := &results[i*len(graphs)+j]
				*r = BatchResult{Path: path, GraphIndex: j, Graph: g}
				if readErr != nil {
					r.Err = readErr
					continue
				}
				res, err := m.Find(egCtx, lines, g)
				if err != nil && isContextErr(err) {
					return err
				}
				r.Result = res
				r.Err = err
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
