package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWorkerCount      = 2
	defaultMaxQueueSize     = 20
	defaultMaxConcurrentOCR = 4
	defaultMaxUploadBytes   = 200 << 20 // 200MB
	defaultJobTTL           = 6 * time.Hour
	defaultOCRDPI           = 300
	defaultOCRRetries       = 3
	defaultOCRPageTimeout   = 2 * time.Minute
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount      int
	MaxQueueSize     int
	MaxConcurrentOCR int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Page cache root; one workspace per source document
	DataDir string

	// Recognition
	OCREngine      string // tesseract, textlayer or auto
	OCRLanguage    string
	OCRDPI         int
	OCRMaxRetries  int
	OCRPageTimeout time.Duration

	// Reference dictionaries; an empty or missing path disables the feature
	CorrectionsPath         string
	VocabularyPath          string
	IgnoreWordsPath         string
	SecondaryVocabularyPath string

	// Output
	ReportLocale string
	DefaultTitle string

	// Artifact storage
	StorageAdapter    string // local or s3
	OutputDir         string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SCANBOOK_API_KEY"),

		WorkerCount:      envInt("WORKER_COUNT", defaultWorkerCount),
		MaxQueueSize:     envInt("MAX_QUEUE_SIZE", defaultMaxQueueSize),
		MaxConcurrentOCR: envInt("MAX_CONCURRENT_OCR", defaultMaxConcurrentOCR),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),

		JobTTL: envDuration("JOB_TTL", defaultJobTTL),

		DataDir: envOr("DATA_DIR", "./data"),

		OCREngine:      strings.ToLower(envOr("OCR_ENGINE", "auto")),
		OCRLanguage:    envOr("OCR_LANGUAGE", "spa"),
		OCRDPI:         envInt("OCR_DPI", defaultOCRDPI),
		OCRMaxRetries:  envInt("OCR_MAX_RETRIES", defaultOCRRetries),
		OCRPageTimeout: envDuration("OCR_PAGE_TIMEOUT", defaultOCRPageTimeout),

		CorrectionsPath:         os.Getenv("CORRECTIONS_PATH"),
		VocabularyPath:          os.Getenv("VOCABULARY_PATH"),
		IgnoreWordsPath:         os.Getenv("IGNORE_WORDS_PATH"),
		SecondaryVocabularyPath: os.Getenv("SECONDARY_VOCABULARY_PATH"),

		ReportLocale: envOr("REPORT_LOCALE", "es"),
		DefaultTitle: envOr("DEFAULT_TITLE", "Book"),

		StorageAdapter:    strings.ToLower(envOr("STORAGE_ADAPTER", "local")),
		OutputDir:         envOr("OUTPUT_DIR", "./output"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          envOr("S3_REGION", "us-east-1"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.MaxConcurrentOCR <= 0 {
		cfg.MaxConcurrentOCR = defaultMaxConcurrentOCR
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = defaultOCRDPI
	}
	if cfg.OCRMaxRetries < 0 {
		cfg.OCRMaxRetries = 0
	}
	if cfg.OCRPageTimeout <= 0 {
		cfg.OCRPageTimeout = defaultOCRPageTimeout
	}

	return cfg
}

// Validate checks the settings shared by the server and the CLI.
func (c Config) Validate() error {
	switch c.OCREngine {
	case "tesseract", "textlayer", "auto":
	default:
		return fmt.Errorf("OCR_ENGINE must be tesseract, textlayer or auto, got %q", c.OCREngine)
	}
	switch c.StorageAdapter {
	case "local":
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for local storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("STORAGE_ADAPTER must be local or s3, got %q", c.StorageAdapter)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

// ValidateServer additionally requires the API key.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return fmt.Errorf("SCANBOOK_API_KEY is required")
	}
	return c.Validate()
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
