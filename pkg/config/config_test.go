package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MinScore != 30 || cfg.Engine.SuccessScore != 60 || cfg.Engine.DirectScore != 200 {
		t.Errorf("unexpected engine thresholds: %+v", cfg.Engine)
	}
	if cfg.Engine.MaxQueryLength != 500 {
		t.Errorf("expected max query length 500, got %d", cfg.Engine.MaxQueryLength)
	}
	if cfg.Engine.Cache != "memory" {
		t.Errorf("expected memory cache by default, got %q", cfg.Engine.Cache)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte(`
server:
  port: 9000
engine:
  minScore: 40
  cacheTTL: 30s
corpora:
  faq:
    path: data/faq.json
    kind: faq
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PA_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Engine.MinScore != 40 {
		t.Errorf("expected minScore 40, got %d", cfg.Engine.MinScore)
	}
	if cfg.Engine.SuccessScore != 60 {
		t.Errorf("default successScore lost, got %d", cfg.Engine.SuccessScore)
	}
	if cfg.Engine.CacheTTL != 30*time.Second {
		t.Errorf("expected cacheTTL 30s, got %v", cfg.Engine.CacheTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override not applied, got %q", cfg.Logging.Level)
	}
	if cfg.Corpora["faq"].Kind != "faq" {
		t.Errorf("corpus not loaded: %+v", cfg.Corpora)
	}
}

func TestValidateRejectsBadCorpus(t *testing.T) {
	cfg := defaultConfig()
	cfg.Corpora["faq"] = CorpusConfig{Path: "x.json", Kind: "wiki"}
	err := cfg.Validate()
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsUnknownCache(t *testing.T) {
	cfg := defaultConfig()
	cfg.Engine.Cache = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache kind")
	}
}
