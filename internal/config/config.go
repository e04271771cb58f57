package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Schema workspace on disk
	WorkspaceDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Scoring
	ScoreFloor         float64
	MissingRolePenalty float64
	MinRoleConfidence  float64
	WindowSize         int
	ScoreParallelism   int

	// Schema runs
	SplitOnBlankLine bool

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("TEMPLIFY_API_KEY"),

		WorkspaceDir: envOr("WORKSPACE_DIR", "./workspace"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ScoreFloor:         envFloat("SCORE_FLOOR", 0.30),
		MissingRolePenalty: envFloat("MISSING_ROLE_PENALTY", 0.15),
		MinRoleConfidence:  envFloat("MIN_ROLE_CONFIDENCE", 0.35),
		WindowSize:         envInt("FEATURE_WINDOW", 2),
		ScoreParallelism:   envInt("SCORE_PARALLELISM", 4),

		SplitOnBlankLine: envBool("SPLIT_ON_BLANK_LINE", true),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ScoreFloor <= 0 || cfg.ScoreFloor >= 1 {
		cfg.ScoreFloor = 0.30
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 2
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TEMPLIFY_API_KEY is required")
	}
	if c.WorkspaceDir == "" {
		return fmt.Errorf("WORKSPACE_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
