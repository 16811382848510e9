package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Crawler  CrawlerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type BrowserConfig struct {
	// Coupang penalizes headless sessions on product pages, so GUI mode is
	// the default. Batch paths can opt into headless for throughput.
	Headless       bool
	NavTimeout     time.Duration
	ElementTimeout time.Duration
	PanelProbe     time.Duration
	PagerTimeout   time.Duration
	SearchTimeout  time.Duration
	BlockResources bool
}

type CrawlerConfig struct {
	SearchBaseURL  string
	WorkerCount    int // 0 = derive from CPU count
	UseBatching    bool
	BatchSize      int
	BatchCooldown  time.Duration
	MaxReviewPages int
	MinReviewCount int
	MaxLinks       int
	ThumbnailSize  string
	WorkerBin      string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type StorageConfig struct {
	Backend string // "postgres" or "file"
	Dir     string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", false),
			NavTimeout:     getDurationOrDefault("BROWSER_NAV_TIMEOUT", 30*time.Second),
			ElementTimeout: getDurationOrDefault("BROWSER_ELEMENT_TIMEOUT", 20*time.Second),
			PanelProbe:     getDurationOrDefault("BROWSER_PANEL_PROBE_TIMEOUT", 3*time.Second),
			PagerTimeout:   getDurationOrDefault("BROWSER_PAGER_TIMEOUT", 5*time.Second),
			SearchTimeout:  getDurationOrDefault("BROWSER_SEARCH_TIMEOUT", 15*time.Second),
			BlockResources: getBoolOrDefault("BROWSER_BLOCK_RESOURCES", true),
		},
		Crawler: CrawlerConfig{
			SearchBaseURL:  getEnvOrDefault("CRAWLER_SEARCH_BASE_URL", "https://www.coupang.com"),
			WorkerCount:    getIntOrDefault("CRAWLER_WORKER_COUNT", 0),
			UseBatching:    getBoolOrDefault("CRAWLER_USE_BATCHING", true),
			BatchSize:      getIntOrDefault("CRAWLER_BATCH_SIZE", 15),
			BatchCooldown:  getDurationOrDefault("CRAWLER_BATCH_COOLDOWN", 2*time.Second),
			MaxReviewPages: getIntOrDefault("CRAWLER_MAX_REVIEW_PAGES", 10),
			MinReviewCount: getIntOrDefault("CRAWLER_MIN_REVIEW_COUNT", 200),
			MaxLinks:       getIntOrDefault("CRAWLER_MAX_LINKS", 10),
			ThumbnailSize:  getEnvOrDefault("CRAWLER_THUMBNAIL_SIZE", "292x292ex"),
			WorkerBin:      getEnvOrDefault("CRAWLER_WORKER_BIN", "task-worker"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "dc_scraper"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_EVENT_STREAM", "crawl-events"),
		},
		Storage: StorageConfig{
			Backend: getEnvOrDefault("STORAGE_BACKEND", "postgres"),
			Dir:     getEnvOrDefault("STORAGE_DIR", "./data"),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.BatchSize < 1 {
		return fmt.Errorf("CRAWLER_BATCH_SIZE must be at least 1")
	}

	if c.Crawler.WorkerCount < 0 {
		return fmt.Errorf("CRAWLER_WORKER_COUNT cannot be negative")
	}

	if c.Crawler.MaxReviewPages < 1 {
		return fmt.Errorf("CRAWLER_MAX_REVIEW_PAGES must be at least 1")
	}

	if c.Crawler.MinReviewCount < 0 {
		return fmt.Errorf("CRAWLER_MIN_REVIEW_COUNT cannot be negative")
	}

	if c.Storage.Backend != "postgres" && c.Storage.Backend != "file" {
		return fmt.Errorf("STORAGE_BACKEND must be \"postgres\" or \"file\", got %q", c.Storage.Backend)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
