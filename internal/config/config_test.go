package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "OCR_ENGINE", "JOB_TTL", "STORAGE_ADAPTER", "REPORT_LOCALE"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port %q, got %q", "8090", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.OCREngine != "auto" {
		t.Errorf("expected engine %q, got %q", "auto", cfg.OCREngine)
	}
	if cfg.JobTTL != 6*time.Hour {
		t.Errorf("expected 6h ttl, got %s", cfg.JobTTL)
	}
	if cfg.StorageAdapter != "local" {
		t.Errorf("expected local storage, got %q", cfg.StorageAdapter)
	}
	if cfg.ReportLocale != "es" {
		t.Errorf("expected locale %q, got %q", "es", cfg.ReportLocale)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "7")
	t.Setenv("OCR_ENGINE", "TextLayer")
	t.Setenv("JOB_TTL", "90m")
	t.Setenv("MAX_CONCURRENT_OCR", "-3")

	cfg := Load()
	if cfg.WorkerCount != 7 {
		t.Errorf("expected 7 workers, got %d", cfg.WorkerCount)
	}
	if cfg.OCREngine != "textlayer" {
		t.Errorf("expected engine %q, got %q", "textlayer", cfg.OCREngine)
	}
	if cfg.JobTTL != 90*time.Minute {
		t.Errorf("expected 90m ttl, got %s", cfg.JobTTL)
	}
	if cfg.MaxConcurrentOCR != 4 {
		t.Errorf("expected non-positive value to fall back to 4, got %d", cfg.MaxConcurrentOCR)
	}
}

func TestLoad_ZeroRetriesKept(t *testing.T) {
	t.Setenv("OCR_MAX_RETRIES", "0")
	if got := Load().OCRMaxRetries; got != 0 {
		t.Errorf("expected 0 retries, got %d", got)
	}
	t.Setenv("OCR_MAX_RETRIES", "-1")
	if got := Load().OCRMaxRetries; got != 0 {
		t.Errorf("expected negative retries to clamp to 0, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	base := Config{OCREngine: "auto", StorageAdapter: "local", OutputDir: "out", DataDir: "data"}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := base
	bad.OCREngine = "magic"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown engine")
	}

	s3 := base
	s3.StorageAdapter = "s3"
	if err := s3.Validate(); err == nil {
		t.Error("expected error for s3 without bucket")
	}
	s3.S3Bucket = "books"
	if err := s3.Validate(); err != nil {
		t.Errorf("expected s3 config to validate, got %v", err)
	}

	if err := base.ValidateServer(); err == nil {
		t.Error("expected server validation to require API key")
	}
	base.APIKey = "k"
	if err := base.ValidateServer(); err != nil {
		t.Errorf("expected server config to validate, got %v", err)
	}
}
