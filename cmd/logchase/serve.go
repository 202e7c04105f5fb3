package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

// maxRequestLines bounds the lines accepted by POST /match.
const maxRequestLines = 100_000

var (
	// serve flags
	addr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pattern matching over HTTP",
	Long: `Serve the patterns of a pattern file over HTTP.

Endpoints:
  GET  /patterns  list pattern ids, descriptions and step names
  POST /match     search {"lines": [...], "patterns": ["id", ...]}

An empty or missing "patterns" searches for every pattern.

Example:
  logchase serve -p patterns.yaml --addr :8080
  curl -s localhost:8080/match -d '{"lines":["T00 dog is big and black","T10 color is black"]}' \
    -H 'Content-Type: application/json'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&maxSteps, "max-steps", defaultMaxSteps,
		"Maximum search steps per request and pattern (0 = unlimited)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	compiled, err := loadPatterns(nil)
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

	app := newServer(compiled, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	logger.Info("listening", "addr", addr, "patterns", len(compiled))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

type patternInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Names       []string `json:"names,omitempty"`
}

type matchRequest struct {
	Lines    []string `json:"lines"`
	Patterns []string `json:"patterns"`
}

type matchResponse struct {
	RunID   string   `json:"run_id"`
	Results []Record `json:"results"`
}

// newServer builds the HTTP app. It holds no state beyond the compiled
// patterns and matcher, which are safe for concurrent use.
func newServer(compiled []pattern.Compiled, m *logchase.Matcher, logger *slog.Logger) *fiber.App {
	app := fiber.New()

	infos := make([]patternInfo, len(compiled))
	for i, c := range compiled {
		infos[i] = patternInfo{ID: c.ID, Description: c.Description, Names: c.Names()}
	}

	app.Get("/patterns", func(c fiber.Ctx) error {
		return c.JSON(infos)
	})

	app.Post("/match", func(c fiber.Ctx) error {
		var req matchRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if len(req.Lines) > maxRequestLines {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "too many lines"})
		}
		selected, err := pattern.Select(compiled, req.Patterns)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		resp := matchResponse{RunID: uuid.NewString(), Results: make([]Record, 0, len(selected))}
		lines := logchase.Lines(req.Lines)
		for _, p := range selected {
			res, err := m.Find(c.Context(), lines, p.Graph)
			rec := newRecord(p, res)
			if err != nil {
				if !errors.Is(err, logchase.ErrSearchBudgetExceeded) {
					logger.Error("match failed", "run_id", resp.RunID, "pattern", p.ID, "error", err)
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
				}
				rec.Error = err.Error()
			}
			resp.Results = append(resp.Results, rec)
		}
		logger.Debug("match request", "run_id", resp.RunID, "lines", len(req.Lines), "patterns", len(selected))
		return c.JSON(resp)
	})

	return app
}
