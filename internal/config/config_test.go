package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VOTING_API_URL", "https://wahl.example.edu/api")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q", cfg.Server.Host)
	}
	if cfg.Import.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d, want 10 MiB", cfg.Import.MaxFileSize)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API timeout = %v", cfg.API.Timeout)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("rate config = %+v", cfg.Rate)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging config = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("IMPORT_MAX_FILE_SIZE", "1048576")
	t.Setenv("VOTING_API_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Import.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %d", cfg.Import.MaxFileSize)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API timeout = %v", cfg.API.Timeout)
	}
	if cfg.Rate.Enabled {
		t.Error("rate limiting should be disabled")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoadRequiresAPIURL(t *testing.T) {
	t.Setenv("VOTING_API_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should fail without VOTING_API_URL")
	}
	if !strings.Contains(err.Error(), "VOTING_API_URL") {
		t.Errorf("err = %v, should name the missing variable", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		wants string
	}{
		{"relative api url", map[string]string{"VOTING_API_URL": "wahl/api"}, "absolute URL"},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}, "SERVER_PORT"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"zero import cap", map[string]string{"IMPORT_MAX_FILE_SIZE": "0"}, "IMPORT_MAX_FILE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wants) {
				t.Errorf("err = %v, want mention of %q", err, tt.wants)
			}
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should fail on a malformed integer")
	}
}

func TestStringMasksTokens(t *testing.T) {
	cfg := &Config{}
	cfg.API.BaseURL = "https://wahl.example.edu"
	cfg.API.AuthToken = "super-geheim"

	s := cfg.String()
	if strings.Contains(s, "super-geheim") {
		t.Error("String() must not leak the auth token")
	}
	if !strings.Contains(s, "MASKED") {
		t.Errorf("String() = %q, want masked marker", s)
	}
}

func TestAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
