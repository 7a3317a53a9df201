package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "90s", 90 * time.Second},
		{"uses default for empty", "", time.Minute},
		{"uses default for garbage", "soon", time.Minute},
		{"uses default for negative", "-5s", time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.envValue)

			result := getEnvAsDurationOrDefault("TEST_DURATION", time.Minute)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestLoad_MissingKeyIsNotFatal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "")
	t.Setenv("SESSION_SECRET", "")

	cfg := Load()
	if cfg.HasGeminiKey() {
		t.Fatal("expected no Gemini key")
	}
	if cfg.GeminiModel != "gemini-2.5-flash-lite" {
		t.Errorf("unexpected default model %q", cfg.GeminiModel)
	}
	if cfg.SessionSecret == "" {
		t.Error("expected generated session secret")
	}
}

func TestLoad_LegacyKeyVariable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "legacy")

	if got := Load().GeminiAPIKey; got != "legacy" {
		t.Fatalf("Expected legacy key, got %q", got)
	}
}

func TestLoadSystemPrompt(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("SYSTEM_PROMPT_FILE", "")
		t.Setenv("SYSTEM_PROMPT", "")
		if got := loadSystemPrompt(); got != DefaultSystemPrompt {
			t.Errorf("expected default prompt")
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("SYSTEM_PROMPT_FILE", "")
		t.Setenv("SYSTEM_PROMPT", "be brief")
		if got := loadSystemPrompt(); got != "be brief" {
			t.Errorf("Expected %q, got %q", "be brief", got)
		}
	})

	t.Run("file wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.txt")
		if err := os.WriteFile(path, []byte("  from file\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("SYSTEM_PROMPT_FILE", path)
		t.Setenv("SYSTEM_PROMPT", "be brief")
		if got := loadSystemPrompt(); got != "from file" {
			t.Errorf("Expected %q, got %q", "from file", got)
		}
	})
}
