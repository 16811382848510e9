package scraper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/furixon/dc-scraper/internal/models"
)

func pageOf(n, size int) []models.ReviewRecord {
	batch := make([]models.ReviewRecord, size)
	for i := range batch {
		batch[i] = models.ReviewRecord{
			ProductCode: "123",
			Rating:      "5",
			Date:        fmt.Sprintf("2024.01.%02d", n),
			Content:     fmt.Sprintf("page %d review %d", n, i),
		}
	}
	return batch
}

func TestWalkVisitsAtMostMaxPages(t *testing.T) {
	collected := 0
	advanced := 0

	reviews := walk(10,
		func(pageNum int) []models.ReviewRecord {
			collected++
			return pageOf(pageNum, 3)
		},
		func(nextPage int) bool {
			advanced++
			return true // pager never runs out
		},
	)

	assert.Equal(t, 10, collected, "hard cap bounds page visits")
	assert.Equal(t, 9, advanced, "no advance after the final page")
	assert.Len(t, reviews, 30)
}

func TestWalkStopsWhenPagerStalls(t *testing.T) {
	reviews := walk(10,
		func(pageNum int) []models.ReviewRecord {
			return pageOf(pageNum, 2)
		},
		func(nextPage int) bool {
			return nextPage <= 3 // pager exhausted after page 3
		},
	)

	assert.Len(t, reviews, 6, "keeps everything accumulated before the stall")
}

func TestWalkStopsOnEmptyPage(t *testing.T) {
	reviews := walk(10,
		func(pageNum int) []models.ReviewRecord {
			if pageNum >= 2 {
				return nil
			}
			return pageOf(pageNum, 4)
		},
		func(nextPage int) bool { return true },
	)

	assert.Len(t, reviews, 4)
}

func TestWalkNoReviewsAtAll(t *testing.T) {
	reviews := walk(10,
		func(int) []models.ReviewRecord { return nil },
		func(int) bool {
			t.Fatal("must not advance past an empty first page")
			return false
		},
	)

	assert.Empty(t, reviews)
}

func TestWalkPreservesPageOrder(t *testing.T) {
	reviews := walk(3,
		func(pageNum int) []models.ReviewRecord {
			return pageOf(pageNum, 1)
		},
		func(int) bool { return true },
	)

	assert.Equal(t, []string{"page 1 review 0", "page 2 review 0", "page 3 review 0"},
		[]string{reviews[0].Content, reviews[1].Content, reviews[2].Content})
}

func TestPagerButtonSelector(t *testing.T) {
	assert.Equal(t,
		`xpath=//*[@id="sdpReview"]/div/div[4]/div[2]/div/button[2]`,
		pagerButtonSelector(panelPrimary, 2))
	assert.Equal(t,
		`xpath=//*[@id="btfTab"]/ul[2]/li[2]/div/div[6]/section[4]/div[3]/button[7]`,
		pagerButtonSelector(panelFallback, 7))
}
