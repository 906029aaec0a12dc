package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	OpenAIAPIKey  string
	AllowedOrigin string
	Model         string
	// Database (optional; the seeded in-memory catalog is used when unset)
	DatabaseURL string
	// Path to the fact-extraction prompt spec
	ExtractPromptFile string
	// Upper bound on a single chat completion call
	ChatTimeout time.Duration
	// Conversation history kept per session
	MaxHistoryMessages int
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:               getEnvDefault("PORT", "8080"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		Model:              getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		DatabaseURL:        os.Getenv("DB_URL"),
		ExtractPromptFile:  getEnvDefault("EXTRACT_PROMPT_FILE", "./prompts/extract.yaml"),
		ChatTimeout:        time.Duration(getEnvIntDefault("CHAT_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxHistoryMessages: getEnvIntDefault("MAX_HISTORY_MESSAGES", 40),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; API calls will fail until provided")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
