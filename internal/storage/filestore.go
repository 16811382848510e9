package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/furixon/dc-scraper/internal/models"
)

// record is the on-disk shape of a persisted task result.
type record struct {
	JobID   string                `json:"job_id"`
	SavedAt time.Time             `json:"saved_at"`
	URL     string                `json:"url"`
	Status  string                `json:"status"`
	Error   string                `json:"error,omitempty"`
	Product *models.ProductRecord `json:"product,omitempty"`
	Reviews []models.ReviewRecord `json:"reviews,omitempty"`
}

// FileStore persists task results as JSON files on local disk, one file per
// scraped product grouped by job. It is the storage backend for setups that
// run without Postgres.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) SaveTaskResult(_ context.Context, jobID string, result models.TaskResult) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	jobDir := filepath.Join(fs.dir, jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	rec := record{
		JobID:   jobID,
		SavedAt: time.Now(),
		URL:     result.URL,
		Status:  result.Status,
		Error:   result.Error,
		Product: result.Product,
		Reviews: result.Reviews,
	}

	name := "failure_" + sanitize(result.URL) + ".json"
	if result.Product != nil && result.Product.ProductCode != "" {
		name = result.Product.ProductCode + ".json"
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode task result: %w", err)
	}

	// Write to temp file first for atomicity
	path := filepath.Join(jobDir, name)
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write task result: %w", err)
	}
	return os.Rename(tmpFile, path)
}

// ListJob returns the results stored for a job, in directory order.
func (fs *FileStore) ListJob(jobID string) ([]models.TaskResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(fs.dir, jobID))
	if err != nil {
		return nil, err
	}

	var results []models.TaskResult
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.dir, jobID, entry.Name()))
		if err != nil {
			return nil, err
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("corrupt result file %s: %w", entry.Name(), err)
		}
		results = append(results, models.TaskResult{
			URL:     rec.URL,
			Status:  rec.Status,
			Error:   rec.Error,
			Product: rec.Product,
			Reviews: rec.Reviews,
		})
	}
	return results, nil
}

// sanitize makes a URL safe to use as a filename.
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	const max = 80
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return string(out)
}
