package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (optional; enables cross-instance widget fan-out)
	RedisURL string

	// Widget sessions
	SessionSecret    string
	SessionIdleTTL   time.Duration
	SessionRateLimit int

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	GeminiTransport      string
	GeminiConcurrentReqs int
	SystemPrompt         string

	// Static site
	StaticDir string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		Env:              getEnvOrDefault("ENV", "development"),
		RedisURL:         getEnvOrDefault("REDIS_URL", ""),
		SessionSecret:    getEnvOrDefault("SESSION_SECRET", ""),
		SessionIdleTTL:   getEnvAsDurationOrDefault("SESSION_IDLE_TTL", 30*time.Minute),
		SessionRateLimit: getEnvAsIntOrDefault("SESSION_RATE_LIMIT", 20),
		GeminiAPIKey:     firstEnv("GEMINI_API_KEY", "VITE_GEMINI_API_KEY"),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiBaseURL:    getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTransport:  strings.ToLower(getEnvOrDefault("GEMINI_TRANSPORT", "rest")),
		SystemPrompt:     loadSystemPrompt(),
		StaticDir:        getEnvOrDefault("STATIC_DIR", ""),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:8080"),

		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQS", 5),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		log.Println("SESSION_SECRET not set; using a per-process secret")
	}

	return cfg
}

// HasGeminiKey reports whether chat sends can reach the upstream endpoint.
func (c *Config) HasGeminiKey() bool { return c.GeminiAPIKey != "" }

// loadSystemPrompt prefers SYSTEM_PROMPT_FILE, then SYSTEM_PROMPT, then the
// built-in persona.
func loadSystemPrompt() string {
	if path := os.Getenv("SYSTEM_PROMPT_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("failed to read SYSTEM_PROMPT_FILE %s: %v", path, err)
		} else if prompt := strings.TrimSpace(string(data)); prompt != "" {
			return prompt
		}
	}
	return getEnvOrDefault("SYSTEM_PROMPT", DefaultSystemPrompt)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return hex.EncodeToString(b)
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
