// task-worker crawls exactly one product URL and exits. The parent pool
// writes a TaskDescriptor as JSON to stdin and reads a TaskResult as JSON
// from stdout; logs go to stderr so they never corrupt the result stream.
package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/furixon/dc-scraper/internal/config"
	"github.com/furixon/dc-scraper/internal/models"
	"github.com/furixon/dc-scraper/internal/scraper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var desc models.TaskDescriptor
	if err := json.NewDecoder(os.Stdin).Decode(&desc); err != nil {
		logger.Error("failed to decode task descriptor", "error", err)
		os.Exit(1)
	}

	if !strings.HasPrefix(desc.URL, "http://") && !strings.HasPrefix(desc.URL, "https://") {
		emit(logger, models.FailedResult(desc.URL, "url must begin with http:// or https://"))
		return
	}

	runner := scraper.NewRunner(cfg.Browser, cfg.Crawler, logger)
	emit(logger, runner.Run(desc))
}

// emit writes the result to stdout. Task failures are data, so the process
// still exits zero; a non-zero exit means the worker itself broke.
func emit(logger *slog.Logger, result models.TaskResult) {
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		logger.Error("failed to encode task result", "error", err)
		os.Exit(1)
	}
}
