package scraper

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDiscoveryUsesConfiguredWait(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDiscovery("https://www.coupang.com", 200, 25*time.Second, logger)

	assert.Equal(t, 25*time.Second, d.waitTimeout)
	assert.Equal(t, 200, d.minReviewCount)
}
