package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Bulk.BatchSizeLimit != 20 {
		t.Errorf("expected default batch size limit 20, got %d", cfg.Bulk.BatchSizeLimit)
	}
	if cfg.Upstream.TimeoutSeconds != 10.0 {
		t.Errorf("expected default timeout 10s, got %v", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Upstream.BaseURL == "" {
		t.Error("expected a default upstream base URL")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE_LIMIT", "5")
	t.Setenv("OUTBOUND_TIMEOUT_SECONDS", "2.5")
	t.Setenv("HOSPITAL_DIRECTORY_API_BASE_URL", "http://localhost:9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Bulk.BatchSizeLimit != 5 {
		t.Errorf("BATCH_SIZE_LIMIT not applied, got %d", cfg.Bulk.BatchSizeLimit)
	}
	if cfg.Upstream.TimeoutSeconds != 2.5 {
		t.Errorf("OUTBOUND_TIMEOUT_SECONDS not applied, got %v", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Upstream.BaseURL != "http://localhost:9999" {
		t.Errorf("HOSPITAL_DIRECTORY_API_BASE_URL not applied, got %q", cfg.Upstream.BaseURL)
	}
}
