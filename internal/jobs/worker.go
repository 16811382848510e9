package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/furixon/dc-scraper/internal/models"
)

// workerKillGrace bounds how long a cancelled worker's inherited pipes may
// keep Wait blocked after the process itself has been killed.
const workerKillGrace = 3 * time.Second

// WorkerExec runs one task in a dedicated worker process. A browser session
// is too heavy and too crash-prone to share within one process, so each task
// owns a whole OS process; only the descriptor goes in (stdin JSON) and only
// the result comes out (stdout JSON).
type WorkerExec struct {
	bin    string
	logger *slog.Logger
}

func NewWorkerExec(bin string, logger *slog.Logger) *WorkerExec {
	return &WorkerExec{
		bin:    ResolveWorkerBin(bin),
		logger: logger.With("component", "worker_exec"),
	}
}

// ResolveWorkerBin locates the worker binary: an explicit path is kept as-is,
// otherwise PATH is searched, otherwise the server's own directory (the usual
// install layout puts both binaries side by side).
func ResolveWorkerBin(bin string) string {
	if strings.ContainsRune(bin, os.PathSeparator) {
		return bin
	}
	if path, err := exec.LookPath(bin); err == nil {
		return path
	}
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), bin)
		if _, err := os.Stat(sibling); err == nil {
			return sibling
		}
	}
	return bin
}

// Run executes the worker process for one descriptor. A crash, kill or
// unreadable output becomes a failed TaskResult; it never propagates as an
// error to sibling tasks.
func (w *WorkerExec) Run(ctx context.Context, desc models.TaskDescriptor) models.TaskResult {
	payload, err := json.Marshal(desc)
	if err != nil {
		return models.FailedResult(desc.URL, fmt.Sprintf("failed to encode descriptor: %v", err))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.bin)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// On cancellation only the worker itself is killed; its browser
	// subprocesses inherit the output pipes and would keep Wait blocked
	// until they exit. WaitDelay abandons the pipes after the grace period.
	cmd.WaitDelay = workerKillGrace

	if err := cmd.Run(); err != nil {
		w.logger.Error("worker process failed",
			"url", desc.URL,
			"error", err,
			"stderr", tail(stderr.String(), 512))
		return models.FailedResult(desc.URL, fmt.Sprintf("worker process failed: %v", err))
	}

	var result models.TaskResult
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &result); err != nil {
		return models.FailedResult(desc.URL, fmt.Sprintf("worker produced unreadable output: %v", err))
	}
	if result.URL == "" {
		result.URL = desc.URL
	}
	return result
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
