package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCSTORE_URL", "http://localhost:9099/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DocstoreURL != "http://localhost:9099" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.DocstoreURL)
	}
	if cfg.Persistence != PersistenceSQLite {
		t.Errorf("Expected sqlite persistence, got %q", cfg.Persistence)
	}
	if cfg.CoachesStaleAfter != 60*time.Second {
		t.Errorf("Expected 60s staleness window, got %v", cfg.CoachesStaleAfter)
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics enabled by default")
	}
}

func TestLoadRequiresDocstoreURL(t *testing.T) {
	t.Setenv("DOCSTORE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DOCSTORE_URL") {
		t.Fatalf("Expected DOCSTORE_URL error, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DOCSTORE_URL", "http://db")
	t.Setenv("PERSISTENCE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COACHES_STALE_AFTER", "90")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("METRICS_ENABLED", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Persistence != PersistenceRedis || cfg.Redis.DB != 3 {
		t.Errorf("Unexpected redis config %q/%d", cfg.Persistence, cfg.Redis.DB)
	}
	if cfg.CoachesStaleAfter != 90*time.Second {
		t.Errorf("Expected bare seconds to parse, got %v", cfg.CoachesStaleAfter)
	}
	if cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:              "8080",
			IdentityURL:       "http://id",
			DocstoreURL:       "http://db",
			Persistence:       PersistenceMemory,
			CoachesStaleAfter: time.Minute,
			HTTPTimeout:       time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown persistence", func(c *Config) { c.Persistence = "etcd" }, "PERSISTENCE"},
		{"sqlite without path", func(c *Config) { c.Persistence = PersistenceSQLite }, "DB_PATH"},
		{"redis without addr", func(c *Config) { c.Persistence = PersistenceRedis }, "REDIS_ADDR"},
		{"zero window", func(c *Config) { c.CoachesStaleAfter = 0 }, "COACHES_STALE_AFTER"},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadEmulator(t *testing.T) {
	t.Setenv("EMULATOR_TOKEN_TTL", "10m")

	cfg, err := LoadEmulator()
	if err != nil {
		t.Fatalf("LoadEmulator failed: %v", err)
	}
	if cfg.TokenTTL != 10*time.Minute || cfg.Port != "9099" {
		t.Errorf("Unexpected emulator config %+v", cfg)
	}
}
