package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"docanalyzer/internal/logger"
)

type Config struct {
	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// OCR Configuration
	OCRLanguages []string

	// Chunking Configuration
	MaxChunkWords int
	ChunkOverlap  int
	MaxChunks     int

	// Answering Configuration
	MaxWorkers      int
	MaxAnswerTokens int

	// Report Configuration
	ReportDir string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OCRLanguages:    splitEnv("OCR_LANGUAGES", "spa,eng"),
		MaxChunkWords:   getIntEnv("MAX_CHUNK_WORDS", 3500),
		ChunkOverlap:    getIntEnv("CHUNK_OVERLAP", 200),
		MaxChunks:       getIntEnv("MAX_CHUNKS", 4),
		MaxWorkers:      getIntEnv("MAX_WORKERS", 3),
		MaxAnswerTokens: getIntEnv("MAX_ANSWER_TOKENS", 600),
		ReportDir:       getEnv("REPORT_DIR", "analysis_results"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:   getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:       getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks ranges only. OPENAI_API_KEY is deliberately optional:
// without it the pipeline still runs OCR-only extraction with the vision
// pass and question answering disabled.
func (c *Config) validate() error {
	if c.MaxChunkWords <= 0 {
		return fmt.Errorf("MAX_CHUNK_WORDS must be positive, got %d", c.MaxChunkWords)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.MaxChunkWords {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, MAX_CHUNK_WORDS), got %d", c.ChunkOverlap)
	}
	if c.MaxChunks < 1 {
		return fmt.Errorf("MAX_CHUNKS must be at least 1, got %d", c.MaxChunks)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.MaxWorkers)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}
	return nil
}

// VisionEnabled reports whether the vision LLM pass can be used.
func (c *Config) VisionEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
