package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/furixon/dc-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	product_code   TEXT PRIMARY KEY,
	job_id         TEXT NOT NULL,
	url            TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	image_url      TEXT NOT NULL DEFAULT '',
	categories     TEXT NOT NULL DEFAULT '',
	star_rating    DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count   INTEGER NOT NULL DEFAULT 0,
	original_price INTEGER NOT NULL DEFAULT 0,
	final_price    INTEGER NOT NULL DEFAULT 0,
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reviews (
	id             BIGSERIAL PRIMARY KEY,
	job_id         TEXT NOT NULL,
	product_code   TEXT NOT NULL,
	page_order     INTEGER NOT NULL,
	rating         TEXT NOT NULL DEFAULT '',
	review_date    TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS reviews_job_product_idx ON reviews (job_id, product_code);

CREATE TABLE IF NOT EXISTS task_failures (
	id         BIGSERIAL PRIMARY KEY,
	job_id     TEXT NOT NULL,
	url        TEXT NOT NULL,
	error      TEXT NOT NULL,
	failed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the result tables when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveTaskResult persists one finished task. Successful tasks upsert the
// product row and append its reviews in page-visit order keyed by
// (job_id, product_code); failed tasks are recorded for operator diagnosis.
func (db *DB) SaveTaskResult(ctx context.Context, jobID string, result models.TaskResult) error {
	if result.Status != models.StatusSuccess || result.Product == nil {
		_, err := db.Exec(ctx,
			`INSERT INTO task_failures (job_id, url, error) VALUES ($1, $2, $3)`,
			jobID, result.URL, result.Error)
		if err != nil {
			return fmt.Errorf("failed to record task failure: %w", err)
		}
		return nil
	}

	product := result.Product

	return db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO products
				(product_code, job_id, url, title, name, image_url, categories,
				 star_rating, review_count, original_price, final_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (product_code) DO UPDATE SET
				job_id = EXCLUDED.job_id,
				url = EXCLUDED.url,
				title = EXCLUDED.title,
				name = EXCLUDED.name,
				image_url = EXCLUDED.image_url,
				categories = EXCLUDED.categories,
				star_rating = EXCLUDED.star_rating,
				review_count = EXCLUDED.review_count,
				original_price = EXCLUDED.original_price,
				final_price = EXCLUDED.final_price,
				scraped_at = NOW()`,
			product.ProductCode, jobID, result.URL, product.Title, product.Name,
			product.ImageURL, strings.Join(product.Categories, ","),
			product.StarRating, product.ReviewCount,
			product.OriginalPrice, product.FinalPrice)
		if err != nil {
			return fmt.Errorf("failed to upsert product: %w", err)
		}

		// Re-crawls replace the product's review set for this job.
		if _, err := tx.Exec(ctx,
			`DELETE FROM reviews WHERE job_id = $1 AND product_code = $2`,
			jobID, product.ProductCode); err != nil {
			return fmt.Errorf("failed to clear old reviews: %w", err)
		}

		for i, review := range result.Reviews {
			if _, err := tx.Exec(ctx, `
				INSERT INTO reviews (job_id, product_code, page_order, rating, review_date, content)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				jobID, review.ProductCode, i, review.Rating, review.Date, review.Content); err != nil {
				return fmt.Errorf("failed to insert review: %w", err)
			}
		}

		return nil
	})
}
