package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/furixon/dc-scraper/internal/jobs"
)

// CrawlService is the slice of the pipeline the HTTP boundary needs.
type CrawlService interface {
	Start(req jobs.RunRequest) (string, error)
	Running() bool
}

type Handlers struct {
	service CrawlService
	logger  *slog.Logger
}

func NewHandlers(service CrawlService, logger *slog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger.With("component", "api"),
	}
}

// StartCrawlResponse is returned for accepted and rejected run requests.
type StartCrawlResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message"`
}

// StatusResponse reports the single-flight run state.
type StatusResponse struct {
	IsRunning bool   `json:"is_running"`
	Status    string `json:"status"`
}

// StartCrawl accepts a run request and either starts a run out-of-band or
// rejects it because one is already active. The caller polls status.
func (h *Handlers) StartCrawl(w http.ResponseWriter, r *http.Request) {
	var req jobs.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Keyword) == "" {
		h.respondError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	if req.MaxLinks < 0 {
		h.respondError(w, http.StatusBadRequest, "max_links cannot be negative")
		return
	}

	jobID, err := h.service.Start(req)
	if err != nil {
		if errors.Is(err, jobs.ErrRunInProgress) {
			h.respondJSON(w, http.StatusConflict, StartCrawlResponse{
				Status:  "processing",
				Message: "a crawl run is already in progress",
			})
			return
		}
		h.logger.Error("failed to start crawl", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start crawl")
		return
	}

	h.logger.Info("crawl accepted", "jobID", jobID, "keyword", req.Keyword)
	h.respondJSON(w, http.StatusAccepted, StartCrawlResponse{
		Status:  "started",
		JobID:   jobID,
		Message: "crawl started for keyword '" + req.Keyword + "'",
	})
}

// GetStatus reports whether a run holds the guard right now. The read is
// lock-free best-effort; a status probe tolerates slight staleness.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	running := h.service.Running()
	status := "idle"
	if running {
		status = "processing"
	}
	h.respondJSON(w, http.StatusOK, StatusResponse{
		IsRunning: running,
		Status:    status,
	})
}

// Health is a plain liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
