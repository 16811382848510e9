package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furixon/dc-scraper/internal/models"
)

func TestFileStoreSaveAndList(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	success := models.TaskResult{
		URL:    "https://www.coupang.com/vp/products/123?vendorItemId=9",
		Status: models.StatusSuccess,
		Product: &models.ProductRecord{
			ProductCode: "123",
			Title:       "Test Product",
			StarRating:  4.5,
			ReviewCount: 321,
		},
		Reviews: []models.ReviewRecord{
			{ProductCode: "123", Rating: "5", Date: "2026.08.01", Content: "good"},
		},
	}
	require.NoError(t, fs.SaveTaskResult(ctx, "job_1", success))

	failed := models.FailedResult("https://www.coupang.com/vp/products/456", "page load timeout or bot detection")
	require.NoError(t, fs.SaveTaskResult(ctx, "job_1", failed))

	results, err := fs.ListJob("job_1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byStatus := make(map[string]models.TaskResult)
	for _, r := range results {
		byStatus[r.Status] = r
	}

	got := byStatus[models.StatusSuccess]
	require.NotNil(t, got.Product)
	assert.Equal(t, "123", got.Product.ProductCode)
	assert.Equal(t, 4.5, got.Product.StarRating)
	assert.Len(t, got.Reviews, 1)

	gotFailed := byStatus[models.StatusFailed]
	assert.Equal(t, "page load timeout or bot detection", gotFailed.Error)
	assert.Nil(t, gotFailed.Product)
}

func TestFileStoreOverwritesSameProduct(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	result := models.TaskResult{
		URL:     "https://www.coupang.com/vp/products/777",
		Status:  models.StatusSuccess,
		Product: &models.ProductRecord{ProductCode: "777", Title: "First"},
	}
	require.NoError(t, fs.SaveTaskResult(ctx, "job_2", result))

	result.Product.Title = "Second"
	require.NoError(t, fs.SaveTaskResult(ctx, "job_2", result))

	results, err := fs.ListJob("job_2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Second", results[0].Product.Title)
}

func TestFileStoreListMissingJob(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)

	_, err = fs.ListJob("job_none")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "https___example_com_a_b", sanitize("https://example.com/a/b"))

	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	assert.Len(t, sanitize(long), 80)
}
