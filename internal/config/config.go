package config

import (
	"os"
	"strconv"
	"time"
)

type Queue struct {
	MaxConcurrency int           // Max simultaneously in-flight upstream calls
	MaxRetries     int           // Retries after the first attempt
	BackoffBase    time.Duration // Base delay; attempt n waits base*n^2
	BackoffMax     time.Duration // Ceiling on a single backoff wait
	JitterPercent  float64       // Backoff jitter percentage (0.0-1.0)
	DedupTTL       time.Duration // Window for reusing completed results; 0 disables dedup
}

type Upstream struct {
	SerpBaseURL     string // SerpApi-compatible search endpoint
	SerpAPIKey      string // empty -> sources fall back to synthetic data
	RedditBaseURL   string // Reddit public JSON API
	RedditUserAgent string
	ChatBaseURL     string // OpenAI-compatible completions endpoint (OpenAI or Groq)
	ChatAPIKey      string
	ChatModel       string
	Timeout         time.Duration // Per-call HTTP timeout
}

type Cache struct {
	ReportTTL time.Duration // How long an assembled report is served from cache
}

type DB struct {
	DSN string // empty -> report persistence disabled
}

type Config struct {
	AppName         string
	HTTPPort        string // :8080
	PrefetchEnabled bool   // warm adjacent-keyword results after an analysis
	Queue           Queue
	Upstream        Upstream
	Cache           Cache
	DB              DB
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName:         getenv("APP_NAME", "pmfit"),
		HTTPPort:        getenv("HTTP_PORT", ":8080"),
		PrefetchEnabled: getenvBool("PREFETCH_ENABLED", true),
		Queue: Queue{
			MaxConcurrency: getenvInt("QUEUE_MAX_CONCURRENCY", 3),
			MaxRetries:     getenvInt("QUEUE_MAX_RETRIES", 2),
			BackoffBase:    getenvDuration("QUEUE_BACKOFF_BASE", 400*time.Millisecond),
			BackoffMax:     getenvDuration("QUEUE_BACKOFF_MAX", 10*time.Second),
			JitterPercent:  getenvFloat("QUEUE_BACKOFF_JITTER_PCT", 0.25),
			DedupTTL:       getenvDuration("QUEUE_DEDUP_TTL", 30*time.Second),
		},
		Upstream: Upstream{
			SerpBaseURL:     getenv("SERPAPI_BASE_URL", "https://serpapi.com"),
			SerpAPIKey:      getenv("SERPAPI_KEY", ""),
			RedditBaseURL:   getenv("REDDIT_BASE_URL", "https://www.reddit.com"),
			RedditUserAgent: getenv("REDDIT_USER_AGENT", "pmfit-analyzer/1.0 (market-fit research)"),
			ChatBaseURL:     getenv("CHAT_BASE_URL", "https://api.openai.com/v1"),
			ChatAPIKey:      getenv("CHAT_API_KEY", ""),
			ChatModel:       getenv("CHAT_MODEL", "gpt-4o-mini"),
			Timeout:         getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Cache: Cache{
			ReportTTL: getenvDuration("REPORT_CACHE_TTL", 15*time.Minute),
		},
		DB: DB{
			DSN: getenv("DB_DSN", ""),
		},
	}
}
